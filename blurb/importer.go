package blurb

import (
	"bytes"
	"errors"
	"fmt"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"flowbook/utils/images"
)

// ErrNotImage is returned when imported data is not a supported raster image.
var ErrNotImage = errors.New("not a supported image")

// ImportOptions controls thumbnails generated for imported images.
type ImportOptions struct {
	ThumbnailSize    int
	ThumbnailQuality int
	Filter           imaging.ResampleFilter
}

// Import registers image under name src in the project: image data is copied
// into images/<guid>.<ext>, thumbnail written into thumbnails/<guid>.jpg and
// new entry added to the registry.
func (r *Registry) Import(src string, data []byte, modified time.Time, opts ImportOptions) (Media, error) {
	kind, err := filetype.Image(data)
	if err != nil || kind == filetype.Unknown {
		return Media{}, fmt.Errorf("%s: %w", src, ErrNotImage)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return Media{}, fmt.Errorf("%s: %w: %w", src, ErrNotImage, err)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return Media{}, fmt.Errorf("unable to generate media guid: %w", err)
	}
	m := Media{
		GUID:      id.String(),
		Src:       src,
		Ext:       kind.Extension,
		Width:     img.Bounds().Dx(),
		Height:    img.Bounds().Dy(),
		Modified:  modified,
		Validated: true,
	}
	if err := writeFile(filepath.Join(r.dir, ImagesDir, m.FileName()), data, modified); err != nil {
		return Media{}, err
	}

	thumb, err := images.Thumbnail(img, opts.ThumbnailSize, opts.ThumbnailQuality, opts.Filter)
	if err != nil {
		return Media{}, fmt.Errorf("%s: unable to create thumbnail: %w", src, err)
	}
	if err := writeFile(filepath.Join(r.dir, ThumbnailsDir, m.GUID+".jpg"), thumb, modified); err != nil {
		return Media{}, err
	}

	r.Add(m)
	return m, nil
}

func writeFile(name string, data []byte, modified time.Time) error {
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(name, data, 0644); err != nil {
		return err
	}
	if modified.IsZero() {
		return nil
	}
	return os.Chtimes(name, modified, modified)
}
