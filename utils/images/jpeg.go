// Package images has helpers for raster images stored in book projects.
package images

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/jpeg"
)

// JFIF density units.
const (
	unitsNone    = 0
	unitsPerInch = 1
)

var (
	markerAPP0 = []byte{0xFF, 0xE0}
	jfifID     = []byte{'J', 'F', 'I', 'F', 0x00, 0x01, 0x02}
)

// addJFIF inserts JFIF APP0 segment with given pixel density right after SOI
// unless data already starts with APP0. Book editor treats thumbnails without
// density as 1 dpi images.
func addJFIF(data []byte, units uint8, dpi uint16) ([]byte, bool, error) {
	if len(data) < 4 {
		return nil, false, errors.New("jpeg too small")
	}
	if data[0] != 0xFF || data[1] != 0xD8 {
		return nil, false, errors.New("not a jpeg")
	}
	if bytes.Equal(data[2:4], markerAPP0) {
		return data, false, nil
	}

	buf := bytes.NewBuffer(make([]byte, 0, len(data)+18))
	buf.Write(data[:2])
	buf.Write(markerAPP0)
	_ = binary.Write(buf, binary.BigEndian, uint16(16))
	buf.Write(jfifID)
	buf.WriteByte(units)
	_ = binary.Write(buf, binary.BigEndian, [2]uint16{dpi, dpi})
	// no embedded thumbnail
	buf.Write([]byte{0, 0})
	buf.Write(data[2:])
	return buf.Bytes(), true, nil
}

// encodeJPEG encodes image as baseline JPEG carrying density in JFIF header.
func encodeJPEG(img image.Image, quality int, dpi uint16) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	out, _, err := addJFIF(buf.Bytes(), unitsPerInch, dpi)
	return out, err
}
