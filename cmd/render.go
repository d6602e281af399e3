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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rotblauer/tempd/api"
	"github.com/rotblauer/tempd/common"
	"github.com/rotblauer/tempd/params"
	"github.com/rotblauer/tempd/publish"
	"github.com/rotblauer/tempd/raster"
	"github.com/rotblauer/tempd/source"
	"github.com/spf13/cobra"
)

var renderConfig = params.DefaultRenderConfig()
var noiseConfig = params.DefaultNoiseConfig()
var s3Config = params.DefaultS3Config()

// newSource builds the configured source. Noise ignores Input.
func newSource(c *params.RenderConfig, noise *params.NoiseConfig) (source.Source, error) {
	input := params.ExpandPath(c.Input)
	switch c.Source {
	case "noise":
		return source.NewNoise(noise), nil
	case "json":
		return &source.JSONFile{Path: input}, nil
	case "ndjson":
		return &source.Frames{Path: input, Variable: c.Variable}, nil
	case "netcdf":
		return &source.NetCDF{
			Path:     input,
			Variable: c.Variable,
			TimeDim:  c.TimeDim,
			LevelDim: c.LevelDim,
			LatDim:   c.LatDim,
			LonDim:   c.LonDim,
		}, nil
	}
	return nil, fmt.Errorf("unknown source %q", c.Source)
}

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a field to PNG layers",
	Long: `Render loads a field, rasterizes one horizontal slice per timestep,
and writes each timestep as <out>/layers/tNNN.png.

Examples:

  tempd render --source noise --noise.seed 42 --gradient viridis --out /tmp/noise
  tempd render --source netcdf --input air.nc --variable air --level 3 --gz
  tempd render --source json --input field.json --gradient "lab;0:#0000ff,0.5:#ffffff,1:#ff0000"

With --s3-bucket (or AWS_BUCKETNAME), the layers and a manifest are
also uploaded under --s3-prefix.`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		src, err := newSource(renderConfig, noiseConfig)
		if err != nil {
			log.Fatalln(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			sig := <-common.Interrupted()
			slog.Warn("Received signal, cancelling render", "signal", sig)
			cancel()
		}()

		globe := api.NewGlobe(nil)
		c, err := globe.Render(ctx, src, api.Options{
			Level:    renderConfig.Level,
			Gradient: renderConfig.Gradient,
		})
		if err != nil {
			log.Fatalln(err)
		}
		stack := c.Stack
		for _, w := range stack.Warnings {
			slog.Warn("Field warning", "warning", w)
		}

		outDir := params.ExpandPath(renderConfig.OutDir)
		if renderConfig.PNG {
			layers := filepath.Join(outDir, params.DefaultLayersDir)
			if err := writeLayers(layers, stack); err != nil {
				log.Fatalln(err)
			}
			slog.Info("Wrote layers", "dir", layers, "layers", stack.Len(),
				"width", stack.Width, "height", stack.Height)
		}
		if renderConfig.GZ {
			dump := filepath.Join(outDir, params.StackDumpName)
			if err := stack.WriteGZ(dump); err != nil {
				log.Fatalln(err)
			}
			slog.Info("Wrote stack dump", "path", dump)
		}
		if s3Config.Enabled() {
			pub, err := publish.NewS3(s3Config)
			if err != nil {
				log.Fatalln(err)
			}
			name := fmt.Sprintf("%s-%s", c.Payload.Variable, time.Now().UTC().Format("20060102T150405Z"))
			if c.Payload.Variable == "" {
				name = time.Now().UTC().Format("20060102T150405Z")
			}
			loc, err := pub.PublishStack(ctx, name, stack)
			if err != nil {
				log.Fatalln(err)
			}
			slog.Info("Published stack", "manifest", loc)
		}
	},
}

func writeLayers(dir string, stack *raster.Stack) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for t := 0; t < stack.Len(); t++ {
		f, err := os.Create(raster.LayerPath(dir, t))
		if err != nil {
			return err
		}
		if err := stack.EncodePNG(f, t); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(renderCmd)

	flags := renderCmd.Flags()
	addSourceFlags(renderCmd)
	flags.IntVar(&renderConfig.Level, "level", renderConfig.Level, "Vertical level to rasterize")
	flags.StringVar(&renderConfig.Gradient, "gradient", renderConfig.Gradient, "Gradient preset name or spec")
	flags.StringVar(&renderConfig.OutDir, "out", renderConfig.OutDir, "Output directory")
	flags.BoolVar(&renderConfig.PNG, "png", renderConfig.PNG, "Write PNG layers")
	flags.BoolVar(&renderConfig.GZ, "gz", renderConfig.GZ, "Write a gzipped raw stack dump")
	flags.StringVar(&s3Config.Bucket, "s3-bucket", s3Config.Bucket, "S3 bucket to publish layers to")
	flags.StringVar(&s3Config.Prefix, "s3-prefix", s3Config.Prefix, "S3 key prefix")
	flags.StringVar(&s3Config.Region, "s3-region", s3Config.Region, "S3 region")
}

// addSourceFlags registers the flags that pick and shape a source.
func addSourceFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&renderConfig.Source, "source", renderConfig.Source, "One of noise, json, ndjson, netcdf")
	flags.StringVar(&renderConfig.Input, "input", renderConfig.Input, "Input file")
	flags.StringVar(&renderConfig.Variable, "variable", renderConfig.Variable, "Variable name (netcdf)")
	flags.StringVar(&renderConfig.TimeDim, "dim.time", "", "NetCDF time dimension name")
	flags.StringVar(&renderConfig.LevelDim, "dim.level", "", "NetCDF level dimension name")
	flags.StringVar(&renderConfig.LatDim, "dim.lat", "", "NetCDF latitude dimension name")
	flags.StringVar(&renderConfig.LonDim, "dim.lon", "", "NetCDF longitude dimension name")

	flags.Int64Var(&noiseConfig.Seed, "noise.seed", noiseConfig.Seed, "Noise seed")
	flags.IntVar(&noiseConfig.Time, "noise.time", noiseConfig.Time, "Noise timesteps")
	flags.IntVar(&noiseConfig.Lat, "noise.lat", noiseConfig.Lat, "Noise latitude cells")
	flags.IntVar(&noiseConfig.Lon, "noise.lon", noiseConfig.Lon, "Noise longitude cells")
}
