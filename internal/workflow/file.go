package workflow

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// File is one selected local file.
type File struct {
	Name        string
	ContentType string
	Size        int64

	open func() (io.ReadCloser, error)
}

// Open returns the file content.
func (f File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %s has no content", f.Name)
	}
	return f.open()
}

// FileFromBytes wraps in-memory content. An empty contentType is detected
// from the name, then the content.
func FileFromBytes(name, contentType string, data []byte) File {
	if contentType == "" {
		contentType = DetectContentType(name, data)
	}
	return File{
		Name:        filepath.Base(name),
		ContentType: contentType,
		Size:        int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FileFromPath describes a file on disk. The content is read when the batch
// is processed.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}

	head, err := readHead(path)
	if err != nil {
		return File{}, err
	}

	return File{
		Name:        info.Name(),
		ContentType: DetectContentType(path, head),
		Size:        info.Size(),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return head[:n], nil
}

// DetectContentType mirrors what a browser reports for a picked file: the
// type registered for the extension, else a sniff of the content.
func DetectContentType(name string, head []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		if i := strings.IndexByte(ct, ';'); i >= 0 {
			ct = ct[:i]
		}
		return ct
	}
	return strings.SplitN(http.DetectContentType(head), ";", 2)[0]
}

// LoadFiles expands doublestar patterns (plain paths pass through) into
// files, keeping the order of patterns and, within a pattern, lexical order.
func LoadFiles(patterns []string) ([]File, error) {
	var files []File
	for _, pattern := range patterns {
		paths := []string{pattern}
		if hasMeta(pattern) {
			matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("expanding %s: %w", pattern, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no files match %s", pattern)
			}
			sort.Strings(matches)
			paths = matches
		}
		for _, p := range paths {
			f, err := FileFromPath(p)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
	}
	return files, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// DefaultFolder is the folder name proposed for a file: its name without
// the final extension, or "image" when nothing is left.
func DefaultFolder(name string) string {
	stem := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 && i < len(name)-1 && !strings.ContainsRune(name[i+1:], '/') {
		stem = name[:i]
	}
	if stem == "" {
		return "image"
	}
	return stem
}
