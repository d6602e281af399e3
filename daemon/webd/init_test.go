package webd

import (
	"os"

	"github.com/rotblauer/tempd/params"
)

// newTestWebDaemon creates a new WebDaemon for testing purposes.
// If datadir is empty, one will be provided for you.
func newTestWebDaemon(datadir string) (daemon *WebDaemon, teardown func() error) {
	config := params.DefaultTestWebDaemonConfig()
	if datadir != "" {
		config.DataDir = datadir
	} else {
		tmpd, err := os.MkdirTemp(os.TempDir(), "tempd-webd-test")
		if err != nil {
			panic(err)
		}
		config.DataDir = tmpd
	}
	daemon, err := NewWebDaemon(config)
	if err != nil {
		panic(err)
	}
	teardown = func() error {
		if err := daemon.Stop(); err != nil {
			return err
		}
		return os.RemoveAll(config.DataDir)
	}
	return daemon, teardown
}
