// Package common keeps enumerations shared between configuration and layout
// engine so the engine does not have to depend on configuration package.
package common

//go:generate go tool go-enum --marshal --names

// How images are ordered before packing.
// ENUM(sequential, shuffle, smart, smartCoarse, smartFine)
type OrderingMode int

// IsSmart reports whether ordering reorders both images and rows by aspect ratio.
func (o OrderingMode) IsSmart() bool {
	return o == OrderingModeSmart || o == OrderingModeSmartCoarse || o == OrderingModeSmartFine
}

// Field used for sequential ordering.
// ENUM(none, name, date, size, rank, exif)
type SortField int

// Resampling filter for generated thumbnails and previews.
// ENUM(nearest, linear, lanczos)
type ResizeFilter int
