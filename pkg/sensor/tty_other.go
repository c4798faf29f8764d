//go:build !linux

package sensor

import (
	"io"
	"os"
)

// Open opens a sensor source. Serial line settings are left untouched on
// this platform.
func Open(path string, baud int) (io.ReadCloser, error) {
	return os.Open(path)
}
