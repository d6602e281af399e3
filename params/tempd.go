package params

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/metrics"
	"github.com/mitchellh/go-homedir"
)

func init() {
	metrics.Enabled = true
}

var DatadirRoot = func() string {
	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tempd")
	}
	return filepath.Join(home, ".tempd")
}()

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(p string) string {
	out, err := homedir.Expand(p)
	if err != nil {
		return p
	}
	return out
}

const (
	StateDBName      = "state.db"
	StackDumpName    = "stack.gz"
	DefaultLayersDir = "layers"
)

var (
	DisplayBucket = []byte("display")
	LastStackKey  = []byte("last")
)

var DefaultGZipCompressionLevel = gzip.BestSpeed

var (
	// StackCacheSize is the number of rendered stacks kept in memory.
	StackCacheSize = 8

	PlaceCacheTTL = 1 * time.Hour
)
