package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"flowbook/common"
	"flowbook/layout"
)

// RatingKey is EXIF tag used for rank sort when no key is configured.
const RatingKey = "Rating"

const exifDateLayout = "2006:01:02 15:04:05"

// Missing is the rank of images without requested EXIF value, they sort
// first.
var Missing = math.Inf(-1)

// Windows rating tags written into IFD0, goexif does not know them.
var ratingFields = map[uint16]exif.FieldName{
	0x4746: RatingKey,
	0x4749: "RatingPercent",
}

type ratingParser struct{}

func (ratingParser) Parse(x *exif.Exif) error {
	if len(x.Tiff.Dirs) > 0 {
		x.LoadTags(x.Tiff.Dirs[0], ratingFields, false)
	}
	return nil
}

func init() {
	exif.RegisterParsers(ratingParser{})
}

// OpenFunc opens image file for reading.
type OpenFunc func(img *layout.Image) (io.ReadCloser, error)

// KeyFor returns EXIF tag name used for sort field or empty string when
// field does not need EXIF data.
func KeyFor(field common.SortField, key string) string {
	switch field {
	case common.SortFieldExif:
		return key
	case common.SortFieldRank:
		if len(key) > 0 {
			return key
		}
		return RatingKey
	}
	return ""
}

// Rank reads EXIF tag named key from every image and stores its value as
// image rank. Date tags become unix seconds, numeric tags their value.
// Images without readable value get Missing rank. Only failures to open
// image files are reported as errors.
func Rank(ctx context.Context, images []*layout.Image, open OpenFunc, key string, log *zap.Logger) error {
	if len(key) == 0 {
		return errors.New("exif key is not specified")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	ranks := make([]float64, len(images))
	for i, img := range images {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := open(img)
			if err != nil {
				return fmt.Errorf("unable to open image %s: %w", img.ID, err)
			}
			defer r.Close()

			v, err := readRank(r, key)
			if err != nil {
				log.Debug("No EXIF rank", zap.String("image", img.Source), zap.String("key", key), zap.Error(err))
				v = Missing
			}
			ranks[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, img := range images {
		img.Rank = ranks[i]
	}
	return nil
}

func readRank(r io.Reader, key string) (float64, error) {
	x, err := exif.Decode(r)
	switch {
	case err == nil:
	case x != nil && !exif.IsCriticalError(err):
		// broken sub-IFD stops remaining parsers
		_ = ratingParser{}.Parse(x)
	default:
		return 0, err
	}
	tag, err := x.Get(exif.FieldName(key))
	if err != nil {
		return 0, err
	}
	return tagValue(tag)
}

func tagValue(tag *tiff.Tag) (float64, error) {
	switch tag.Format() {
	case tiff.IntVal:
		v, err := tag.Int64(0)
		return float64(v), err
	case tiff.FloatVal:
		return tag.Float(0)
	case tiff.RatVal:
		num, den, err := tag.Rat2(0)
		if err != nil {
			return 0, err
		}
		if den == 0 {
			return 0, errors.New("zero denominator")
		}
		return float64(num) / float64(den), nil
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return 0, err
		}
		s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
		if t, err := time.ParseInLocation(exifDateLayout, s, time.Local); err == nil {
			return float64(t.Unix()), nil
		}
		return strconv.ParseFloat(s, 64)
	}
	return 0, fmt.Errorf("unsupported tag format %v", tag.Format())
}
