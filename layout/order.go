package layout

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/maruel/natural"

	"flowbook/common"
)

// seedSalt is second PCG word, keeps seed 0 usable.
const seedSalt = 0x9e3779b97f4a7c15

// aspect classes for coarse smart ordering
const (
	classPortrait = iota
	classSquare
	classLandscape
	classPanoramic
)

// OrderImages returns images in the order they will be packed. Smart modes
// ignore requested sort field and sort by aspect ratio, widest first. Input
// slice is not modified.
func OrderImages(images []*Image, opts *Options) []*Image {
	out := slices.Clone(images)

	switch opts.Ordering {
	case common.OrderingModeShuffle:
		rnd := rand.New(rand.NewPCG(opts.Seed, seedSalt))
		rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	case common.OrderingModeSmart:
		slices.SortStableFunc(out, func(a, b *Image) int {
			return cmp.Compare(b.Aspect(), a.Aspect())
		})
	case common.OrderingModeSmartCoarse:
		slices.SortStableFunc(out, func(a, b *Image) int {
			return cmp.Compare(aspectClass(b, opts), aspectClass(a, opts))
		})
	case common.OrderingModeSmartFine:
		slices.SortStableFunc(out, func(a, b *Image) int {
			return cmp.Compare(math.Round(b.Aspect()*10), math.Round(a.Aspect()*10))
		})
	default:
		sortByField(out, opts.SortField)
		if opts.Reverse {
			slices.Reverse(out)
		}
	}
	return out
}

func sortByField(images []*Image, field common.SortField) {
	var less func(a, b *Image) int
	switch field {
	case common.SortFieldName:
		less = func(a, b *Image) int {
			switch {
			case natural.Less(a.Source, b.Source):
				return -1
			case natural.Less(b.Source, a.Source):
				return 1
			}
			return 0
		}
	case common.SortFieldDate:
		less = func(a, b *Image) int { return a.Modified.Compare(b.Modified) }
	case common.SortFieldSize:
		less = func(a, b *Image) int { return cmp.Compare(a.Area(), b.Area()) }
	case common.SortFieldRank, common.SortFieldExif:
		less = func(a, b *Image) int { return cmp.Compare(a.Rank, b.Rank) }
	default:
		return
	}
	slices.SortStableFunc(images, less)
}

func aspectClass(img *Image, opts *Options) int {
	switch a := img.Aspect(); {
	case a >= opts.PanoramicAspect:
		return classPanoramic
	case a > 1.1:
		return classLandscape
	case a >= 0.9:
		return classSquare
	}
	return classPortrait
}
