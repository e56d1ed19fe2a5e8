package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const (
	// VersionFile keeps archive version next to extracted book files.
	VersionFile = ".version"
	// layout of file dates stored in Blurb archive
	fileDateLayout = "2006-01-02 15:04:05"
)

const blurbSchema = `
CREATE TABLE 'ArchiveVersion' ('version' NUM);
CREATE TABLE 'Files' ('filepath' TEXT NOT NULL UNIQUE, 'filecontent' BLOB , 'filesize' NUM NOT NULL DEFAULT -1, 'filedate' TEXT NOT NULL DEFAULT 'Unknown');
`

// Stats summarizes archive operation.
type Stats struct {
	Files   int
	Bytes   int64
	Version string
	// files without size or usable date
	Unsized  int
	Undated  int
	Versions int
}

// Extract unpacks Blurb book archive src (sqlite database) into directory dst.
func Extract(ctx context.Context, src, dst string) (stats Stats, err error) {
	if _, err := os.Stat(src); err != nil {
		return stats, fmt.Errorf("unable to access archive: %w", err)
	}
	conn, err := sqlite.OpenConn(src, sqlite.OpenReadOnly)
	if err != nil {
		return stats, fmt.Errorf("unable to open archive %s: %w", src, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	err = sqlitex.Execute(conn, `SELECT filepath, filecontent, filesize, filedate FROM Files;`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			name := stmt.ColumnText(0)
			target, err := targetPath(dst, name)
			if err != nil {
				return err
			}

			content := make([]byte, stmt.ColumnLen(1))
			stmt.ColumnBytes(1, content)
			if size := stmt.ColumnInt64(2); size < 0 {
				stats.Unsized++
			} else if size < int64(len(content)) {
				content = content[:size]
			}

			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(target, content, 0644); err != nil {
				return err
			}
			if stamp, err := time.ParseInLocation(fileDateLayout, stmt.ColumnText(3), time.Local); err == nil {
				if err := os.Chtimes(target, stamp, stamp); err != nil {
					return err
				}
			} else {
				stats.Undated++
			}
			stats.Files++
			stats.Bytes += int64(len(content))
			return nil
		}})
	if err != nil {
		return stats, fmt.Errorf("unable to extract files: %w", err)
	}

	err = sqlitex.Execute(conn, `SELECT version FROM ArchiveVersion;`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			if stats.Versions == 0 {
				stats.Version = stmt.ColumnText(0)
			}
			stats.Versions++
			return nil
		}})
	if err != nil {
		return stats, fmt.Errorf("unable to read archive version: %w", err)
	}
	if stats.Versions > 0 {
		if err := os.WriteFile(filepath.Join(dst, VersionFile), []byte(stats.Version+"\n"), 0644); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// Merge packs book directory src into new Blurb archive dst, existing dst is
// replaced.
func Merge(ctx context.Context, src, dst string) (stats Stats, err error) {
	info, err := os.Stat(src)
	if err != nil {
		return stats, fmt.Errorf("unable to access book directory: %w", err)
	}
	if !info.IsDir() {
		return stats, fmt.Errorf("book source %s is not a directory", src)
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return stats, fmt.Errorf("unable to remove old archive: %w", err)
	}

	conn, err := sqlite.OpenConn(dst, sqlite.OpenReadWrite, sqlite.OpenCreate)
	if err != nil {
		return stats, fmt.Errorf("unable to create archive %s: %w", dst, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := sqlitex.ExecuteScript(conn, blurbSchema, &sqlitex.ExecOptions{}); err != nil {
		return stats, fmt.Errorf("unable to create archive tables: %w", err)
	}

	defer sqlitex.Save(conn)(&err)

	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		if rel == VersionFile {
			version, err := strconv.Atoi(strings.TrimSpace(string(data)))
			if err != nil {
				return fmt.Errorf("bad archive version in %s: %w", path, err)
			}
			stats.Version = strconv.Itoa(version)
			stats.Versions++
			return sqlitex.Execute(conn, `INSERT INTO ArchiveVersion (version) VALUES (?);`,
				&sqlitex.ExecOptions{Args: []any{version}})
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		stats.Files++
		stats.Bytes += int64(len(data))
		return sqlitex.Execute(conn, `INSERT INTO Files (filepath, filecontent, filesize, filedate) VALUES (?, ?, ?, ?);`,
			&sqlitex.ExecOptions{Args: []any{rel, data, len(data), info.ModTime().Format(fileDateLayout)}})
	})
	if err != nil {
		return stats, fmt.Errorf("unable to merge files: %w", err)
	}
	return stats, nil
}

// targetPath resolves archived file name inside destination directory.
func targetPath(dst, name string) (string, error) {
	name = strings.TrimLeft(filepath.ToSlash(name), "/")
	if len(name) == 0 || !isSafePath(name) {
		return "", fmt.Errorf("archive entry %q: unsafe path", name)
	}
	return filepath.Join(dst, filepath.FromSlash(name)), nil
}
