// Package catalog finds source images and computes their sort keys.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/maruel/natural"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"flowbook/archive"
)

// enough to recognize any supported format
const headerSize = 262

// Source is an image file found on disk or inside of zip archive.
type Source struct {
	// Name identifies image in media registry, for archived images it is
	// archive path joined with the path inside archive.
	Name     string
	Modified time.Time
	Size     int64

	open func() (io.ReadCloser, error)
}

// ReadAll returns image data.
func (s *Source) ReadAll() ([]byte, error) {
	r, err := s.open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Scan expands paths into the list of images. Paths may point to image files,
// directories (walked recursively) or zip archives with images. Files which
// are not images are skipped, result is in natural name order with
// duplicates removed.
func Scan(ctx context.Context, paths []string, cp encoding.Encoding, log *zap.Logger) ([]*Source, error) {
	var sources []*Source
	add := func(s *Source) {
		sources = append(sources, s)
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve path %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("unable to access %s: %w", p, err)
		}
		if info.IsDir() {
			err = scanDir(ctx, abs, cp, add, log)
		} else {
			err = scanFile(abs, info, cp, add, log)
		}
		if err != nil {
			return nil, err
		}
	}

	slices.SortStableFunc(sources, func(a, b *Source) int {
		switch {
		case natural.Less(a.Name, b.Name):
			return -1
		case natural.Less(b.Name, a.Name):
			return 1
		}
		return 0
	})
	return slices.CompactFunc(sources, func(a, b *Source) bool { return a.Name == b.Name }), nil
}

func scanDir(ctx context.Context, dir string, cp encoding.Encoding, add func(*Source), log *zap.Logger) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return scanFile(path, info, cp, add, log)
	})
}

func scanFile(path string, info fs.FileInfo, cp encoding.Encoding, add func(*Source), log *zap.Logger) error {
	head, err := readHeader(func() (io.ReadCloser, error) { return os.Open(path) })
	if err != nil {
		return fmt.Errorf("unable to read %s: %w", path, err)
	}
	switch {
	case filetype.IsImage(head):
		add(&Source{
			Name:     path,
			Modified: info.ModTime(),
			Size:     info.Size(),
			open:     func() (io.ReadCloser, error) { return os.Open(path) },
		})
	case filetype.Is(head, "zip"):
		return scanArchive(path, cp, add, log)
	default:
		log.Debug("Skipping file, not recognized as image", zap.String("file", path))
	}
	return nil
}

func scanArchive(path string, cp encoding.Encoding, add func(*Source), log *zap.Logger) error {
	count := 0
	err := archive.Walk(path, cp, nil, func(e *archive.Entry) error {
		if !e.Decoded {
			log.Warn("Unable to convert archive name from specified encoding", zap.String("archive", path), zap.String("file", e.Name))
		}
		head, err := readHeader(e.File.Open)
		if err != nil {
			log.Warn("Unable to read file in archive", zap.String("archive", path), zap.String("file", e.Name), zap.Error(err))
			return nil
		}
		if !filetype.IsImage(head) {
			log.Debug("Skipping file in archive, not recognized as image", zap.String("archive", path), zap.String("file", e.Name))
			return nil
		}
		count++
		raw := e.File.Name
		add(&Source{
			Name:     filepath.Join(path, filepath.FromSlash(e.Name)),
			Modified: e.File.Modified,
			Size:     int64(e.File.UncompressedSize64),
			open:     func() (io.ReadCloser, error) { return archive.OpenFile(path, raw) },
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("unable to scan archive %s: %w", path, err)
	}
	log.Debug("Archive scanned", zap.String("archive", path), zap.Int("images", count))
	return nil
}

func readHeader(open func() (io.ReadCloser, error)) ([]byte, error) {
	r, err := open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	head := make([]byte, headerSize)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return bytes.Clone(head[:n]), nil
}

// IsArchived reports whether source name points inside of zip archive.
func IsArchived(name string) bool {
	return strings.Contains(strings.ToLower(name), ".zip"+string(filepath.Separator))
}
