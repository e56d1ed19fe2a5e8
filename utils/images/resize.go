package images

import (
	"image"

	"github.com/disintegration/imaging"

	"flowbook/common"
)

// ThumbnailDPI is density recorded in generated thumbnails.
const ThumbnailDPI = 72

// Filter maps configured resampling filter to imaging one.
func Filter(f common.ResizeFilter) imaging.ResampleFilter {
	switch f {
	case common.ResizeFilterNearest:
		return imaging.NearestNeighbor
	case common.ResizeFilterLanczos:
		return imaging.Lanczos
	default:
		return imaging.Linear
	}
}

// Thumbnail shrinks image to fit into size x size box keeping aspect ratio
// and encodes result as JPEG. Small images are never enlarged.
func Thumbnail(img image.Image, size, quality int, filter imaging.ResampleFilter) ([]byte, error) {
	thumb := imaging.Fit(img, size, size, filter)
	return encodeJPEG(thumb, quality, ThumbnailDPI)
}
