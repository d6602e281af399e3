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
	"log"
	"log/slog"

	"github.com/rotblauer/tempd/common"
	"github.com/rotblauer/tempd/daemon/webd"
	"github.com/rotblauer/tempd/params"
	"github.com/spf13/cobra"
)

var webdConfig = params.DefaultWebDaemonConfig()

// webdCmd represents the webd command
var webdCmd = &cobra.Command{
	Use:   "webd",
	Short: "Start the webserver",
	Long: `Serves the most recently loaded raster stack.

Loads are POSTed to /load (a JSON field) or /load/noise. Each finished
load replaces the displayed stack, unless a later-started load got there
first. Websocket clients on /socket are told about every new stack.

Set TEMPD_TOKEN to require a token for loads.`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		webdConfig.DataDir = params.ExpandPath(webdConfig.DataDir)

		server, err := webd.NewWebDaemon(webdConfig)
		if err != nil {
			log.Fatalln(err)
		}
		if err := server.Start(); err != nil {
			log.Fatalln(err)
		}

		sig := <-common.Interrupted()
		slog.Info("Received signal", "signal", sig)
		if err := server.Stop(); err != nil {
			slog.Error("Web daemon stopped with error", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(webdCmd)

	pFlags := webdCmd.PersistentFlags()
	pFlags.StringVar(&webdConfig.Address, "http.addr", webdConfig.Address, "HTTP address to listen on")
	pFlags.StringVar(&webdConfig.DataDir, "datadir", webdConfig.DataDir, "Directory for persisted state")
	pFlags.IntVar(&webdConfig.Level, "level", webdConfig.Level, "Default vertical level for loads")
	pFlags.StringVar(&webdConfig.Gradient, "gradient", webdConfig.Gradient, "Default gradient for loads")
	pFlags.IntVar(&webdConfig.HistorySize, "history", webdConfig.HistorySize, "Recent loads reported by /status")
	pFlags.BoolVar(&webdConfig.Restore, "restore", webdConfig.Restore, "Restore the last stack on start")
	pFlags.BoolVar(&webdConfig.Geocode, "geocode", webdConfig.Geocode, "Reverse geocode /sample points")
}
