// Package flow implements program commands: laying images out onto empty
// pages of a book and supporting archive operations.
package flow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"flowbook/archive"
	"flowbook/blurb"
	"flowbook/misc"
)

// project is a book extracted into a directory.
type project struct {
	// src is book archive or directory given by the user
	src string
	dir string
	// archived project lives in temporary directory
	temp bool
}

// openProject prepares book for processing. Book archive is extracted into
// temporary directory, directory is used in place.
func openProject(ctx context.Context, src string, log *zap.Logger) (*project, error) {
	src, err := filepath.Abs(src)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("book was not found: %w", err)
	}
	if fi.IsDir() {
		if _, err := os.Stat(filepath.Join(src, blurb.BookFile)); err != nil {
			return nil, fmt.Errorf("directory %s does not look like extracted book: %w", src, err)
		}
		return &project{src: src, dir: src}, nil
	}

	dir, err := os.MkdirTemp("", misc.GetAppName()+"-")
	if err != nil {
		return nil, fmt.Errorf("unable to create working directory: %w", err)
	}
	p := &project{src: src, dir: dir, temp: true}
	stats, err := archive.Extract(ctx, src, dir)
	if err != nil {
		return nil, multierr.Append(err, p.close())
	}
	log.Debug("Book extracted", zap.String("book", src), zap.String("dir", dir),
		zap.Int("files", stats.Files), zap.Int64("bytes", stats.Bytes), zap.String("version", stats.Version))
	if stats.Unsized > 0 || stats.Undated > 0 {
		log.Warn("Book archive has incomplete file records", zap.Int("unsized", stats.Unsized), zap.Int("undated", stats.Undated))
	}
	return p, nil
}

// name is book name without extension.
func (p *project) name() string {
	base := filepath.Base(p.src)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (p *project) close() error {
	if !p.temp {
		return nil
	}
	return os.RemoveAll(p.dir)
}

// prepareOutput makes sure file can be written, existing file is removed
// only when overwrite is allowed.
func prepareOutput(name string, overwrite bool, log *zap.Logger) error {
	_, err := os.Stat(name)
	switch {
	case err == nil:
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", name)
		}
		log.Warn("Overwriting existing file", zap.String("file", name))
		return os.Remove(name)
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
			return fmt.Errorf("unable to create output directory: %w", err)
		}
		return nil
	default:
		return err
	}
}

// saveProject packs project directory into book archive.
func saveProject(ctx context.Context, dir, out string, log *zap.Logger) error {
	stats, err := archive.Merge(ctx, dir, out)
	if err != nil {
		return fmt.Errorf("unable to write book: %w", err)
	}
	log.Info("Book written", zap.String("book", out), zap.Int("files", stats.Files), zap.Int64("bytes", stats.Bytes))
	return nil
}
