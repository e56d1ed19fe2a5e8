package flow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"flowbook/common"
	"flowbook/config"
	"flowbook/state"
)

// Run lays images out onto empty pages of the book.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("flow")

	req, err := prepareRequest(cmd, env, log)
	if err != nil {
		return err
	}
	env.NoBackup, env.DryRun = cmd.Bool("no-backup"), cmd.Bool("dry-run")
	req.previewDir = cmd.String("preview")
	if len(req.previewDir) > 0 {
		if req.previewDir, err = filepath.Abs(req.previewDir); err != nil {
			return err
		}
	}

	log.Info("Processing starting", zap.String("book", req.target), zap.Int("sources", len(req.images)), zap.Int("pages", req.pages))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	out, err := process(ctx, req, log)
	if err != nil {
		return err
	}
	if out.Result.Unplaced > 0 {
		log.Warn("Add empty pages to the book and run again to place remaining images", zap.Int("unplaced", out.Result.Unplaced))
	}
	return nil
}

// Preview renders pages computed for the book into PNG files without
// changing the book.
func Preview(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("preview")

	req, err := prepareRequest(cmd, env, log)
	if err != nil {
		return err
	}
	if len(req.images) != 1 {
		return errors.New("preview requires book and single destination directory")
	}
	if req.previewDir, err = filepath.Abs(req.images[0]); err != nil {
		return err
	}
	req.images = nil
	env.DryRun = true

	out, err := process(ctx, req, log)
	if err != nil {
		return err
	}
	log.Info("Preview ready", zap.String("dir", req.previewDir), zap.Int("files", len(out.Previews)))
	return nil
}

// prepareRequest collects common arguments of layout commands and applies
// command line overrides to configuration.
func prepareRequest(cmd *cli.Command, env *state.LocalEnv, log *zap.Logger) (*request, error) {
	target := cmd.Args().Get(0)
	if len(target) == 0 {
		return nil, errors.New("no book has been specified")
	}
	req := &request{
		target: target,
		images: cmd.Args().Tail(),
		output: cmd.String("output"),
		pages:  cmd.Int("pages"),
	}
	if req.pages < 0 {
		return nil, fmt.Errorf("bad page count %d", req.pages)
	}

	env.Overwrite = cmd.Bool("force")
	env.CodePage = codePage(cmd.String("force-zip-cp"), log)

	if err := applyOverrides(cmd, env.Cfg, log); err != nil {
		return nil, err
	}
	return req, nil
}

// codePage returns requested encoding for non UTF-8 file names in zip
// archives with images.
func codePage(cp string, log *zap.Logger) encoding.Encoding {
	if len(cp) == 0 {
		return nil
	}
	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	enc, err := ianaindex.IANA.Encoding(cp)
	if err != nil || enc == nil {
		log.Warn("Unknown character set name. Ignoring...", zap.String("charset", cp), zap.Error(err))
		return nil
	}
	n, _ := ianaindex.IANA.Name(enc)
	log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
	return enc
}

// applyOverrides changes loaded configuration according to command line
// flags which were explicitly set.
func applyOverrides(cmd *cli.Command, cfg *config.Config, log *zap.Logger) error {
	l := &cfg.Layout
	if cmd.IsSet("image-height") {
		l.ImageHeight = cmd.Float("image-height")
	}
	if cmd.IsSet("seed") {
		l.Seed = cmd.Uint64("seed")
	}
	if cmd.IsSet("mirror") {
		l.Mirror = cmd.Bool("mirror")
	}
	if cmd.IsSet("double") {
		l.DoubleSpreads = cmd.Bool("double")
	}
	if cmd.IsSet("ordering") {
		o, err := common.ParseOrderingMode(cmd.String("ordering"))
		if err != nil {
			return fmt.Errorf("bad ordering: %w", err)
		}
		l.Ordering = o
	}
	if cmd.IsSet("sort") {
		f, err := common.ParseSortField(cmd.String("sort"))
		if err != nil {
			return fmt.Errorf("bad sort field: %w", err)
		}
		cfg.Catalog.Sort = f
	}
	if cmd.IsSet("exif-key") {
		cfg.Catalog.ExifKey = cmd.String("exif-key")
		if !cmd.IsSet("sort") {
			cfg.Catalog.Sort = common.SortFieldExif
		}
	}
	if cmd.IsSet("reverse") {
		cfg.Catalog.Reverse = cmd.Bool("reverse")
	}
	if cfg.Catalog.Sort == common.SortFieldExif && len(strings.TrimSpace(cfg.Catalog.ExifKey)) == 0 {
		return errors.New("exif sort requires exif key")
	}
	log.Debug("Layout parameters", zap.Float64("image_height", l.ImageHeight), zap.Stringer("ordering", l.Ordering),
		zap.Stringer("sort", cfg.Catalog.Sort), zap.Bool("reverse", cfg.Catalog.Reverse))
	return nil
}
