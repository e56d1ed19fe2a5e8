// Package archive deals with containers of files: plain zip archives with
// source images and sqlite based Blurb book archives.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/text/encoding"
)

// Entry describes file in zip archive visited by Walk.
type Entry struct {
	// Archive is the path to archive passed to Walk.
	Archive string
	// Name is the path of the file inside archive, decoded when archive was
	// created without UTF-8 flag and code page was supplied.
	Name string
	// Decoded is false when name conversion was requested and failed, Name
	// keeps raw bytes then.
	Decoded bool
	File    *zip.File
}

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. If an error is returned, processing stops.
type WalkFunc func(e *Entry) error

// Walk walks all regular files in the archive for which match returns true,
// calling walkFn for each item. Nil match selects everything. Archives with
// absolute paths or ".." components are rejected to prevent Zip Slip.
func Walk(archive string, cp encoding.Encoding, match func(name string) bool, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if !isSafePath(f.Name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", f.Name)
		}
		if f.FileInfo().IsDir() {
			continue
		}
		e := &Entry{Archive: archive, Name: f.Name, Decoded: true, File: f}
		if cp != nil && f.NonUTF8 {
			if n, err := cp.NewDecoder().String(f.Name); err == nil {
				e.Name = n
			} else {
				e.Decoded = false
			}
		}
		if match != nil && !match(e.Name) {
			continue
		}
		if err := walkFn(e); err != nil {
			return err
		}
	}
	return nil
}

// OpenFile opens file stored in archive under raw (not decoded) name. Entries
// passed to WalkFunc are only valid during the walk, OpenFile is used to read
// them later.
func OpenFile(archive, name string) (io.ReadCloser, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	for _, f := range r.File {
		if f.Name != name || f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, multierr.Append(err, r.Close())
		}
		return &entryReader{ReadCloser: rc, archive: r}, nil
	}
	return nil, multierr.Append(fmt.Errorf("%s: %s: %w", archive, name, fs.ErrNotExist), r.Close())
}

// entryReader closes archive together with the entry.
type entryReader struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (e *entryReader) Close() error {
	return multierr.Append(e.ReadCloser.Close(), e.archive.Close())
}

// Prefix returns match function selecting names under prefix.
func Prefix(prefix string) func(string) bool {
	return func(name string) bool {
		return strings.HasPrefix(name, prefix)
	}
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(strings.ReplaceAll(name, `\`, "/"), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
