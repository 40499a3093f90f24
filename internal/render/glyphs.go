package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/park285/cheese-arbiter/internal/rules"
)

// Glyph outlines on a 45x45 canvas. Every piece shares the plinth.
var glyphShapes = map[rules.Kind][]string{
	rules.Pawn: {
		`<path d="M 15 34 L 18 21 L 27 21 L 30 34 Z"/>`,
		`<circle cx="22.5" cy="15" r="5.5"/>`,
	},
	rules.Rook: {
		`<rect x="14" y="16" width="17" height="18"/>`,
		`<path d="M 11 8 L 15 8 L 15 11 L 20 11 L 20 8 L 25 8 L 25 11 L 30 11 L 30 8 L 34 8 L 34 16 L 11 16 Z"/>`,
	},
	rules.Knight: {
		`<path d="M 14 34 L 16 25 L 11 23 L 12 17 L 19 10 L 21 5 L 24 9 C 31 11 34 21 31 34 Z"/>`,
		`<circle cx="18" cy="15" r="1.2"/>`,
	},
	rules.Bishop: {
		`<path d="M 15 34 L 19 21 L 26 21 L 30 34 Z"/>`,
		`<circle cx="22.5" cy="15" r="6.5"/>`,
		`<circle cx="22.5" cy="6.5" r="2.2"/>`,
	},
	rules.Queen: {
		`<path d="M 9 13 L 14 31 L 31 31 L 36 13 L 28 23 L 22.5 9 L 17 23 Z"/>`,
		`<circle cx="9" cy="12" r="2.2"/>`,
		`<circle cx="22.5" cy="8" r="2.2"/>`,
		`<circle cx="36" cy="12" r="2.2"/>`,
	},
	rules.King: {
		`<path d="M 13 34 L 15 20 L 30 20 L 32 34 Z"/>`,
		`<path d="M 21 4 L 24 4 L 24 8 L 28 8 L 28 11 L 24 11 L 24 17 L 21 17 L 21 11 L 17 11 L 17 8 L 21 8 Z"/>`,
	},
}

const glyphPlinth = `<rect x="10" y="34" width="25" height="5"/>`

func glyphSVG(p rules.Piece) ([]byte, error) {
	shapes, ok := glyphShapes[p.Kind]
	if !ok {
		return nil, fmt.Errorf("no glyph for %s", p.Kind)
	}
	fill, stroke := "#f7f4ec", "#1b1b1b"
	if p.Color == rules.Black {
		fill, stroke = "#262626", "#e8e8e8"
	}
	style := fmt.Sprintf(` fill="%s" stroke="%s" stroke-width="1.5"/>`, fill, stroke)

	var b bytes.Buffer
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">`)
	for _, s := range append([]string{glyphPlinth}, shapes...) {
		b.WriteString(strings.TrimSuffix(s, "/>") + style)
	}
	b.WriteString(`</svg>`)
	return b.Bytes(), nil
}

type glyphKey struct {
	piece rules.Piece
	size  int
}

var (
	glyphCache   = map[glyphKey]image.Image{}
	glyphCacheMu sync.RWMutex
)

func glyphImage(p rules.Piece, size int) (image.Image, error) {
	key := glyphKey{piece: p, size: size}
	glyphCacheMu.RLock()
	if img, ok := glyphCache[key]; ok {
		glyphCacheMu.RUnlock()
		return img, nil
	}
	glyphCacheMu.RUnlock()

	data, err := glyphSVG(p)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse glyph svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)

	glyphCacheMu.Lock()
	glyphCache[key] = img
	glyphCacheMu.Unlock()
	return img, nil
}
