package brckit

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/mmap"
)

const (
	SourceMmap = "mmap"
	SourceFile = "file"
)

var ErrUnknownSource = errors.New("unknown input source")

// Input is an opened measurements file.
type Input interface {
	io.ReaderAt
	io.Closer
	Size() int64
}

type mmapInput struct {
	*mmap.ReaderAt
}

func (m mmapInput) Size() int64 {
	return int64(m.Len())
}

type fileInput struct {
	*os.File
	size int64
}

func (f fileInput) Size() int64 {
	return f.size
}

// Open opens path for positional reads. source selects a memory mapping
// (SourceMmap) or plain pread calls on the file (SourceFile).
func Open(path, source string) (Input, error) {
	switch source {
	case SourceMmap, "":
		r, err := mmap.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		return mmapInput{r}, nil
	case SourceFile:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		return fileInput{File: f, size: info.Size()}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
}
