package influxdb

import (
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rotblauer/tempd/events"
	"github.com/rotblauer/tempd/field"
	"github.com/rotblauer/tempd/params"
)

// Points builds one "field_load" point describing the commit, plus one
// "field_timestep" point per timestep mean.
func Points(ev events.StackCommitted, s field.Summary) []*write.Point {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	load := influxdb2.NewPointWithMeasurement("field_load").
		SetTime(at).
		AddTag("source", ev.Source).
		AddTag("gradient", ev.Gradient).
		AddField("seq", int64(ev.Seq)).
		AddField("min", s.Min).
		AddField("max", s.Max).
		AddField("mean", s.Mean).
		AddField("median", s.Median).
		AddField("stddev", s.StdDev).
		AddField("p05", s.P05).
		AddField("p95", s.P95).
		AddField("width", ev.Width).
		AddField("height", ev.Height).
		AddField("time_extent", ev.TimeExtent).
		AddField("warnings", len(ev.Warnings))
	if s.Degenerate {
		load.AddField("degenerate", 1)
	}
	points := []*write.Point{load}
	for t, m := range s.TimeMeans {
		points = append(points, influxdb2.NewPointWithMeasurement("field_timestep").
			SetTime(at).
			AddTag("source", ev.Source).
			AddTag("t", fmt.Sprintf("%03d", t)).
			AddField("mean", m))
	}
	return points
}

// ExportLoad posts a committed load to an InfluxDB Write API.
// The last error encountered is returned.
func ExportLoad(config *params.InfluxDBConfig, ev events.StackCommitted, s field.Summary) error {
	opts := influxdb2.DefaultOptions()
	opts.SetPrecision(time.Millisecond)
	client := influxdb2.NewClientWithOptions(config.URL, config.Token, opts)
	writeAPI := client.WriteAPI(config.Org, config.Bucket)

	// Errors must be drained or the writer will block.
	// https://github.com/influxdata/influxdb-client-go?tab=readme-ov-file#reading-async-errors
	errorsCh := writeAPI.Errors()
	var err error
	wait := sync.WaitGroup{}
	wait.Add(1)
	go func() {
		defer wait.Done()
		for e := range errorsCh {
			if e != nil {
				err = e
			}
		}
	}()

	for _, p := range Points(ev, s) {
		writeAPI.WritePoint(p)
	}
	writeAPI.Flush()
	client.Close()
	wait.Wait()
	return err
}
