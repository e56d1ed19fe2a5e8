package flow

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"flowbook/blurb"
	"flowbook/catalog"
	"flowbook/config"
	"flowbook/layout"
	"flowbook/preview"
	"flowbook/state"
	"flowbook/utils/debug"
	"flowbook/utils/images"
)

// request describes single flow run independently of command line.
type request struct {
	// book archive or extracted book directory
	target string
	// image files, directories or zip archives to register before layout
	images []string
	// merged book, empty - derived from target for archives, nothing for
	// directories
	output string
	// desired page count, 0 disables optimization
	pages int
	// directory for page previews, empty - no previews
	previewDir string
}

// outcome summarizes flow run.
type outcome struct {
	Imported  int
	Unused    int
	Result    *layout.Result
	Solution  *layout.Solution
	Options   layout.Options
	Output    string
	Previews  []string
	Unchanged bool
}

// process lays out all images not used by the book onto its empty pages.
func process(ctx context.Context, req *request, log *zap.Logger) (out *outcome, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	env := state.EnvFromContext(ctx)
	out = &outcome{}

	if len(req.output) > 0 && !env.DryRun && !env.Overwrite {
		if _, err := os.Stat(req.output); err == nil {
			return nil, fmt.Errorf("output file already exists: %s", req.output)
		}
	}

	prj, err := openProject(ctx, req.target, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := prj.close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("unable to remove working directory: %w", cerr))
		}
	}()

	if env.Backup() {
		name, err := blurb.Backup(prj.dir)
		if err != nil {
			return nil, err
		}
		log.Debug("Book description preserved", zap.String("backup", name))
	}

	book, err := blurb.LoadBook(prj.dir)
	if err != nil {
		return nil, err
	}
	reg, err := blurb.LoadRegistry(prj.dir)
	if err != nil {
		return nil, err
	}

	if out.Imported, err = register(ctx, reg, req.images, env, log); err != nil {
		return nil, err
	}

	opts, err := layoutOptions(book, env.Cfg)
	if err != nil {
		return nil, err
	}
	out.Options = opts

	imgs, err := reg.Unused(book.UsedImages())
	if err != nil {
		log.Warn("Some registered images are broken and will be skipped", zap.Error(err))
	}
	out.Unused = len(imgs)

	files := reg.Files()
	if key := catalog.KeyFor(opts.SortField, env.Cfg.Catalog.ExifKey); len(key) > 0 && !opts.Ordering.IsSmart() {
		if err := catalog.Rank(ctx, imgs, imageOpener(prj.dir, files), key, log); err != nil {
			return nil, err
		}
	}

	pages, err := book.EmptyPages()
	if err != nil {
		return nil, err
	}
	log.Info("Laying out images", zap.Int("images", len(imgs)), zap.Int("pages", len(pages)),
		zap.Float64("page_width", opts.PageWidth), zap.Float64("page_height", opts.PageHeight))

	if req.pages > 0 {
		start := time.Now()
		sol, err := layout.Solve(imgs, pages, req.pages, opts, env.Cfg.Optimizer.SolveOptions())
		if err != nil {
			return nil, fmt.Errorf("unable to find layout for %d pages: %w", req.pages, err)
		}
		out.Solution = &sol
		opts.TargetHeight, opts.Seed = sol.TargetHeight, sol.Seed
		out.Options = opts
		fields := []zap.Field{zap.Float64("image_height", sol.TargetHeight), zap.Int("pages", sol.PageCount),
			zap.Int("probes", len(sol.Trace)), zap.Duration("elapsed", time.Since(start))}
		if sol.Incomplete {
			log.Warn("Exact page count was not reached, using best effort", append(fields, zap.Int("requested", req.pages))...)
		} else {
			log.Info("Page count reached", fields...)
		}
	}

	var exhausted *layout.ExhaustedError
	res, err := layout.Flow(imgs, pages, opts)
	switch {
	case errors.As(err, &exhausted):
		log.Warn("Not enough empty pages in the book", zap.Int("unplaced", exhausted.Unplaced))
	case err != nil:
		return nil, err
	}
	out.Result = res
	log.Info("Layout computed", zap.Int("pages", res.PageCount()), zap.Int("placed", res.Placed()), zap.Bool("incomplete", res.Incomplete))

	if env.Rpt != nil {
		env.Rpt.StoreData("layout.txt", []byte(debug.Layout(res, &out.Options, out.Solution)))
	}

	if len(req.previewDir) > 0 {
		if out.Previews, err = renderPreviews(ctx, res.Pages, opts, prj.dir, files, req.previewDir, env.Cfg, log); err != nil {
			return nil, err
		}
	}

	if env.DryRun {
		out.Unchanged = true
		log.Info("Dry run, book was not changed")
		return out, nil
	}

	if err := book.Apply(res.Pages, files); err != nil {
		return nil, fmt.Errorf("unable to update book: %w", err)
	}
	if err := book.Save(); err != nil {
		return nil, err
	}
	if reg.Changed() {
		if err := reg.Save(); err != nil {
			return nil, err
		}
	}
	if env.Rpt != nil {
		if err := env.Rpt.StoreCopy("book", prj.dir); err != nil {
			log.Warn("Unable to store book in debug report", zap.Error(err))
		}
	}

	out.Output = req.output
	if len(out.Output) == 0 && prj.temp {
		out.Output = buildOutputPath(prj.src, Values{
			Name:   prj.name(),
			Pages:  res.PageCount(),
			Images: res.Placed(),
			Date:   time.Now().Format("2006-01-02"),
		}, env)
	}
	if len(out.Output) == 0 {
		// directory was updated in place
		return out, nil
	}
	if out.Output, err = filepath.Abs(out.Output); err != nil {
		return nil, err
	}
	if err := prepareOutput(out.Output, env.Overwrite, log); err != nil {
		return nil, err
	}
	if err := saveProject(ctx, prj.dir, out.Output, log); err != nil {
		return nil, err
	}
	if env.Rpt != nil {
		env.Rpt.Store("result"+bookExt, out.Output)
	}
	return out, nil
}

// register imports new images into the project. Images already present in
// registry are skipped, files which cannot be decoded are reported and
// skipped.
func register(ctx context.Context, reg *blurb.Registry, paths []string, env *state.LocalEnv, log *zap.Logger) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	if env.DryRun {
		log.Warn("Dry run, new images are not registered", zap.Strings("ignoring", paths))
		return 0, nil
	}
	sources, err := catalog.Scan(ctx, paths, env.CodePage, log)
	if err != nil {
		return 0, err
	}

	opts := blurb.ImportOptions{
		ThumbnailSize:    env.Cfg.Book.ThumbnailSize,
		ThumbnailQuality: env.Cfg.Book.ThumbnailQuality,
		Filter:           images.Filter(env.Cfg.Preview.Filter),
	}
	count := 0
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if reg.Has(src.Name) {
			log.Debug("Image already registered", zap.String("image", src.Name))
			continue
		}
		data, err := src.ReadAll()
		if err != nil {
			return count, fmt.Errorf("unable to read image %s: %w", src.Name, err)
		}
		m, err := reg.Import(src.Name, data, src.Modified, opts)
		if errors.Is(err, blurb.ErrNotImage) {
			log.Warn("Skipping image", zap.String("image", src.Name), zap.Error(err))
			continue
		}
		if err != nil {
			return count, err
		}
		count++
		log.Debug("Image registered", zap.String("image", src.Name), zap.String("guid", m.GUID), zap.Int("width", m.Width), zap.Int("height", m.Height))
	}
	log.Info("Images registered", zap.Int("found", len(sources)), zap.Int("registered", count))
	return count, nil
}

// layoutOptions prepares engine options, page size not configured explicitly
// comes from the book.
func layoutOptions(book *blurb.Book, cfg *config.Config) (layout.Options, error) {
	var w, h float64
	if cfg.Layout.PageWidth <= 0 || cfg.Layout.PageHeight <= 0 {
		var err error
		if w, h, err = book.PageSize(); err != nil {
			return layout.Options{}, fmt.Errorf("unable to get page size from the book: %w", err)
		}
	}
	opts := cfg.Options(w, h)
	if err := opts.Validate(); err != nil {
		return layout.Options{}, err
	}
	return opts, nil
}

// imageOpener opens full size image files of the project.
func imageOpener(dir string, files map[string]string) catalog.OpenFunc {
	return func(img *layout.Image) (io.ReadCloser, error) {
		name, ok := files[img.ID]
		if !ok {
			return nil, fmt.Errorf("image %s is not registered", img.ID)
		}
		return os.Open(filepath.Join(dir, blurb.ImagesDir, name))
	}
}

// thumbnailLoader prefers project thumbnails falling back to full images.
func thumbnailLoader(dir string, files map[string]string) preview.Loader {
	return func(img *layout.Image) (image.Image, error) {
		if pic, err := imaging.Open(filepath.Join(dir, blurb.ThumbnailsDir, img.ID+".jpg")); err == nil {
			return pic, nil
		}
		name, ok := files[img.ID]
		if !ok {
			return nil, fmt.Errorf("image %s is not registered", img.ID)
		}
		return imaging.Open(filepath.Join(dir, blurb.ImagesDir, name))
	}
}

func renderPreviews(ctx context.Context, pages []layout.Page, opts layout.Options, dir string, files map[string]string, outDir string, cfg *config.Config, log *zap.Logger) ([]string, error) {
	popts, err := previewOptions(&cfg.Preview)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create preview directory: %w", err)
	}
	names, err := preview.RenderAll(ctx, pages, opts.PageWidth, opts.PageHeight, thumbnailLoader(dir, files), outDir, popts, log)
	if err != nil {
		return nil, fmt.Errorf("unable to render previews: %w", err)
	}
	log.Info("Page previews rendered", zap.String("dir", outDir), zap.Int("pages", len(names)))
	return names, nil
}

func previewOptions(cfg *config.PreviewConfig) (*preview.Options, error) {
	bg, err := preview.ParseColor(cfg.Background)
	if err != nil {
		return nil, err
	}
	return &preview.Options{
		Width:      cfg.Width,
		Filter:     images.Filter(cfg.Filter),
		Background: bg,
		Outline:    cfg.Outline,
		Workers:    cfg.Workers,
	}, nil
}
