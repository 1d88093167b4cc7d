package export

import (
	"errors"
	"os"
	"path/filepath"
)

// Sink receives a finished CSV buffer together with a suggested filename.
// Front-ends supply their own sinks (save dialog, download response); the
// engine never assumes a filesystem.
type Sink interface {
	Export(filename string, data []byte) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(filename string, data []byte) error

// Export implements Sink.
func (f SinkFunc) Export(filename string, data []byte) error {
	return f(filename, data)
}

// DirSink writes exports into a directory, one file per export.
type DirSink struct {
	Dir string
}

// Export writes data to Dir/filename. Path traversal in the suggested
// filename is rejected.
func (s DirSink) Export(filename string, data []byte) error {
	if filename == "" {
		return errors.New("export filename is required")
	}
	if filepath.Base(filename) != filename {
		return errors.New("export filename must not contain path separators")
	}
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.Dir, filename), data, 0o600)
}
