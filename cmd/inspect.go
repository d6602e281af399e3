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
	"encoding/json"
	"log"
	"os"

	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/tempd/field"
	"github.com/rotblauer/tempd/geo"
	"github.com/spf13/cobra"
)

type inspection struct {
	Source    string           `json:"source"`
	Variable  string           `json:"variable,omitempty"`
	Layout    *field.Layout    `json:"layout"`
	Summary   field.Summary    `json:"summary"`
	Warning   string           `json:"warning,omitempty"`
	Grid      *geojson.Feature `json:"grid,omitempty"`
	AreaMeans []float64        `json:"area_means,omitempty"`
}

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print a field's layout and summary statistics as JSON",
	Long: `Inspect loads a field without rasterizing it and prints its extents,
resolved strides, axis mapping, and value distribution.

Examples:

  tempd inspect --source netcdf --input air.nc --variable air
  tempd inspect --source noise --noise.time 1`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		src, err := newSource(renderConfig, noiseConfig)
		if err != nil {
			log.Fatalln(err)
		}
		payload, err := src.Load(context.Background())
		if err != nil {
			log.Fatalln(err)
		}
		f, err := payload.Field()
		if err != nil {
			log.Fatalln(err)
		}
		out := inspection{
			Source:   src.Name(),
			Variable: payload.Variable,
			Layout:   f.Layout(),
			Summary:  f.Summarize(),
		}
		if w := f.Warning(); w != nil {
			out.Warning = w.Error()
		}
		if grid, err := geo.ForField(f, payload.Bound); err == nil {
			out.Grid = grid.Feature()
			if means, err := grid.AreaWeightedMeans(f, renderConfig.Level); err == nil {
				out.AreaMeans = means
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	addSourceFlags(inspectCmd)
	inspectCmd.Flags().IntVar(&renderConfig.Level, "level", renderConfig.Level, "Vertical level for area-weighted means")
}
