package params

import (
	"path/filepath"

	"github.com/rotblauer/tempd/gradient"
)

type WebDaemonConfig struct {
	ListenerConfig
	DataDir string

	// Level and Gradient apply to loads that do not name their own.
	Level    int
	Gradient string

	// HistorySize is how many recent loads /status reports.
	HistorySize int

	// Restore reloads the last committed stack from DataDir on start.
	Restore bool

	// Geocode enables reverse geocoding of /sample points.
	Geocode bool
}

func DefaultWebListenerConfig() ListenerConfig {
	return ListenerConfig{
		Network: "tcp",
		Address: "localhost:3000",
	}
}

func DefaultWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		DataDir:        filepath.Join(DatadirRoot, "webd"),
		ListenerConfig: DefaultWebListenerConfig(),
		Gradient:       gradient.Default,
		HistorySize:    16,
		Restore:        true,
		Geocode:        true,
	}
}

func DefaultTestWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		ListenerConfig: ListenerConfig{
			Network: "tcp",
			Address: "localhost:3333",
		},
		Gradient:    "grayscale",
		HistorySize: 4,
	}
}
