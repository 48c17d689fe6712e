package scan

import (
	"io"
	"os"

	"github.com/go-git/go-git/v5/utils/binary"
)

// Sniffer decides whether a file holds text.
type Sniffer interface {
	IsText(path string) (bool, error)
}

// SnifferFunc adapts a function to Sniffer.
type SnifferFunc func(path string) (bool, error)

// IsText implements Sniffer.
func (f SnifferFunc) IsText(path string) (bool, error) {
	return f(path)
}

// ContentSniffer applies git's binary heuristic (a NUL byte in the first
// 8000 bytes) via go-git.
type ContentSniffer struct{}

// IsText implements Sniffer.
func (ContentSniffer) IsText(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close() //nolint:errcheck // read-only

	isBinary, err := binary.IsBinary(io.LimitReader(f, 8000))
	if err != nil {
		return false, err
	}
	return !isBinary, nil
}
