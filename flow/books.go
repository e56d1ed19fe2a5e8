package flow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"flowbook/archive"
	"flowbook/blurb"
	"flowbook/state"
)

// twoArgs returns mandatory source and destination of archive commands.
func twoArgs(cmd *cli.Command, log *zap.Logger) (string, string, error) {
	src, dst := cmd.Args().Get(0), cmd.Args().Get(1)
	if len(src) == 0 || len(dst) == 0 {
		return "", "", errors.New("both source and destination must be specified")
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	src, err := filepath.Abs(src)
	if err != nil {
		return "", "", err
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return "", "", err
	}
	return src, dst, nil
}

// Extract unpacks book archive into a directory.
func Extract(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("extract")

	src, dst, err := twoArgs(cmd, log)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dst)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return err
	case len(entries) > 0 && !cmd.Bool("force"):
		return fmt.Errorf("destination directory is not empty: %s", dst)
	case len(entries) > 0:
		log.Warn("Extracting into non empty directory", zap.String("dir", dst))
	}

	stats, err := archive.Extract(ctx, src, dst)
	if err != nil {
		return err
	}
	log.Info("Book extracted", zap.String("book", src), zap.String("dir", dst),
		zap.Int("files", stats.Files), zap.Int64("bytes", stats.Bytes), zap.String("version", stats.Version))
	if stats.Versions > 1 {
		log.Warn("Book archive has multiple versions, last one was used", zap.Int("versions", stats.Versions))
	}
	return nil
}

// Merge packs directory into book archive.
func Merge(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("merge")

	src, dst, err := twoArgs(cmd, log)
	if err != nil {
		return err
	}
	if err := prepareOutput(dst, cmd.Bool("force"), log); err != nil {
		return err
	}
	return saveProject(ctx, src, dst, log)
}

// Append concatenates books: pages of every source book are added to the end
// of the first one and result is written into target.
func Append(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("append")

	args := cmd.Args().Slice()
	if len(args) < 2 {
		return errors.New("target and source books must be specified")
	}
	target, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if _, err := os.Stat(target); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("output file already exists: %s", target)
	}

	log.Info("Appending books", zap.String("target", target), zap.Strings("sources", args[1:]))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	dst, err := openProject(ctx, args[1], log)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dst.close())
	}()
	if !dst.temp {
		log.Warn("Book directory is updated in place", zap.String("dir", dst.dir))
	}

	for _, name := range args[2:] {
		if err := appendBook(ctx, dst.dir, name, log); err != nil {
			return err
		}
	}

	if err := prepareOutput(target, cmd.Bool("force"), log); err != nil {
		return err
	}
	if err := saveProject(ctx, dst.dir, target, log); err != nil {
		return err
	}
	if env.Rpt != nil {
		env.Rpt.Store("result"+bookExt, target)
	}
	return nil
}

func appendBook(ctx context.Context, dstDir, name string, log *zap.Logger) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := openProject(ctx, name, log)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, src.close())
	}()

	stats, err := blurb.Append(dstDir, src.dir, log)
	if err != nil {
		return fmt.Errorf("unable to append %s: %w", name, err)
	}
	log.Info("Book appended", zap.String("book", src.src), zap.Int("first_page", stats.FirstPage),
		zap.Int("pages", stats.Pages), zap.Int("files", stats.Files), zap.Int("media", stats.Media), zap.Int("remapped", stats.Remapped))
	return nil
}
