package pdf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

const MIMEType = "application/pdf"

var ErrNotPDF = errors.New("not a PDF file")

type File struct {
	Name string
	Path string
	Size int64
	MIME string
}

// Open checks that path names a regular file whose content is a PDF.
// The check sniffs the file header, the file extension is ignored.
func Open(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrNotPDF)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrNotPDF, path)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	if !mtype.Is(MIMEType) {
		return nil, fmt.Errorf("%w: detected %s", ErrNotPDF, mtype.String())
	}

	return &File{
		Name: filepath.Base(path),
		Path: path,
		Size: info.Size(),
		MIME: mtype.String(),
	}, nil
}

func (f *File) GetName() string { return f.Name }
func (f *File) GetPath() string { return f.Path }
func (f *File) GetSize() int64  { return f.Size }

func (f *File) Reader() (io.ReadCloser, error) {
	return os.Open(f.Path)
}
