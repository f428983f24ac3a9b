// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package rasterize

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI is the rasterization resolution. 300 dpi keeps the small
// Gujarati glyphs in the voter boxes legible for the model.
const DefaultDPI = 300

// Document wraps a go-fitz document handle for page rasterization.
// API reference: https://pkg.go.dev/github.com/gen2brain/go-fitz
type Document struct {
	doc *fitz.Document
	dpi float64
}

// Open opens a PDF file for rasterization.
func Open(filePath string) (*Document, error) {
	doc, err := fitz.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &Document{doc: doc, dpi: DefaultDPI}, nil
}

// OpenDPI opens a PDF with a non-default rasterization resolution.
func OpenDPI(filePath string, dpi float64) (*Document, error) {
	d, err := Open(filePath)
	if err != nil {
		return nil, err
	}
	d.dpi = dpi
	return d, nil
}

// Close releases the underlying MuPDF handle.
func (d *Document) Close() error {
	return d.doc.Close()
}

// NumPages returns the page count of the document.
func (d *Document) NumPages() int {
	return d.doc.NumPage()
}

// PagePNG rasterizes page i (0-based) and returns it PNG-encoded.
func (d *Document) PagePNG(i int) ([]byte, error) {
	if i < 0 || i >= d.doc.NumPage() {
		return nil, fmt.Errorf("page index %d out of range (document has %d pages)", i, d.doc.NumPage())
	}
	data, err := d.doc.ImagePNG(i, d.dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize page %d: %w", i, err)
	}
	return data, nil
}

// subImager is satisfied by the concrete image types png.Decode returns.
type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// SplitHalves splits a PNG-encoded page image at the vertical midpoint
// and returns the top and bottom halves, each re-encoded as PNG. Dense
// voter grids exceed what the model reliably emits in one call, so each
// half is extracted as an independent page.
func SplitHalves(pagePNG []byte) (top, bottom []byte, err error) {
	img, err := png.Decode(bytes.NewReader(pagePNG))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode page image: %w", err)
	}

	si, ok := img.(subImager)
	if !ok {
		return nil, nil, fmt.Errorf("page image type %T does not support cropping", img)
	}

	b := img.Bounds()
	mid := b.Min.Y + b.Dy()/2
	topImg := si.SubImage(image.Rect(b.Min.X, b.Min.Y, b.Max.X, mid))
	bottomImg := si.SubImage(image.Rect(b.Min.X, mid, b.Max.X, b.Max.Y))

	var topBuf, bottomBuf bytes.Buffer
	if err := png.Encode(&topBuf, topImg); err != nil {
		return nil, nil, fmt.Errorf("failed to encode top half: %w", err)
	}
	if err := png.Encode(&bottomBuf, bottomImg); err != nil {
		return nil, nil, fmt.Errorf("failed to encode bottom half: %w", err)
	}
	return topBuf.Bytes(), bottomBuf.Bytes(), nil
}
