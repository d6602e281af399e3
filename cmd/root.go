/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/rotblauer/tempd/params"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var optVerbosity int

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tempd",
	Short: "Render gridded scalar fields as per-timestep color rasters",
	Long: `tempd turns a gridded scalar field (temperature, pressure, noise...)
into a stack of color rasters, one per timestep.

Fields come from JSON, NDJSON frames, NetCDF files, or a synthetic noise
generator. The render command writes PNG layers to disk; webd serves the
most recently loaded stack over HTTP and a websocket.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pFlags := rootCmd.PersistentFlags()
	pFlags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tempd.yaml)")
	pFlags.IntVar(&optVerbosity, "verbosity", int(slog.LevelInfo),
		"Log level: -4 debug, 0 info, 4 warn, 8 error")
	_ = viper.BindPFlag("verbosity", pFlags.Lookup("verbosity"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(params.ExpandPath(cfgFile))
	} else {
		viper.AddConfigPath(params.ExpandPath("~"))
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tempd")
	}

	viper.SetEnvPrefix("TEMPD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaultSlog installs a text handler on stderr at the configured level.
func setDefaultSlog(cmd *cobra.Command, args []string) {
	level := slog.Level(viper.GetInt("verbosity"))
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logger ready", "cmd", cmd.Name(), "args", args, "level", level)
}
