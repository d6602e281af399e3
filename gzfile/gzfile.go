// Package gzfile writes and reads gzip-compressed files under an
// exclusive flock, so a reader never sees a half-written dump.
package gzfile

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/rotblauer/tempd/params"
)

type Writer struct {
	f      *os.File
	gzw    *gzip.Writer
	locked bool
	closed bool
}

type WriterConfig struct {
	CompressionLevel int
	Flag             int
	FilePerm         os.FileMode
	DirPerm          os.FileMode
}

// DefaultWriterConfig truncates any existing file.
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		CompressionLevel: params.DefaultGZipCompressionLevel,
		Flag:             os.O_WRONLY | os.O_TRUNC | os.O_CREATE,
		FilePerm:         0660,
		DirPerm:          0770,
	}
}

func NewWriter(path string, config *WriterConfig) (*Writer, error) {
	if config == nil {
		config = DefaultWriterConfig()
	}
	if err := os.MkdirAll(filepath.Dir(path), config.DirPerm); err != nil {
		return nil, err
	}
	fi, err := os.OpenFile(path, config.Flag, config.FilePerm)
	if err != nil {
		return nil, err
	}
	gzw, err := gzip.NewWriterLevel(fi, config.CompressionLevel)
	if err != nil {
		fi.Close()
		return nil, err
	}
	return &Writer{f: fi, gzw: gzw}, nil
}

func (g *Writer) Write(p []byte) (int, error) {
	g.lock()
	return g.gzw.Write(p)
}

// lock takes an exclusive lock on first write.
// Closing the file releases it.
func (g *Writer) lock() {
	if g.locked || g.closed || g.f == nil {
		return
	}
	_ = syscall.Flock(int(g.f.Fd()), syscall.LOCK_EX)
	g.locked = true
}

func (g *Writer) unlock() {
	if !g.locked || g.closed || g.f == nil {
		return
	}
	_ = syscall.Flock(int(g.f.Fd()), syscall.LOCK_UN)
	g.locked = false
}

func (g *Writer) Close() error {
	defer func() {
		g.closed = true
	}()
	defer g.unlock()
	if err := g.gzw.Close(); err != nil {
		return err
	}
	if err := g.f.Sync(); err != nil {
		return err
	}
	return g.f.Close()
}

func (g *Writer) Path() string {
	return g.f.Name()
}

type Reader struct {
	f      *os.File
	gzr    *gzip.Reader
	closed bool
}

func NewReader(path string) (*Reader, error) {
	fi, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(fi.Fd()), syscall.LOCK_SH); err != nil {
		fi.Close()
		return nil, err
	}
	gzr, err := gzip.NewReader(fi)
	if err != nil {
		fi.Close()
		return nil, err
	}
	return &Reader{f: fi, gzr: gzr}, nil
}

func (g *Reader) Read(p []byte) (int, error) {
	return g.gzr.Read(p)
}

// Close releases the shared lock along with the file.
func (g *Reader) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	if err := g.gzr.Close(); err != nil {
		g.f.Close()
		return err
	}
	return g.f.Close()
}

// ReadAll reads and closes the file at path.
func ReadAll(path string) ([]byte, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
