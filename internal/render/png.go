package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/cheese-arbiter/internal/rules"
)

// Highlight marks the last move.
type Highlight struct {
	From rules.Position
	To   rules.Position
}

type Options struct {
	Highlight *Highlight
	// Checked marks a king square in red.
	Checked *rules.Position
	Header  string
	Caption string
}

// BoardRenderer produces a PNG image of a board.
type BoardRenderer interface {
	RenderPNG(ctx context.Context, board *rules.Board, opts Options) ([]byte, error)
}

// PNGRenderer draws generated SVG glyphs onto a coloured grid.
type PNGRenderer struct {
	squareSize int
	face       font.Face
}

// NewPNGRenderer returns a renderer with squares of squarePx pixels.
func NewPNGRenderer(squarePx int) *PNGRenderer {
	if squarePx < 16 {
		squarePx = 64
	}
	return &PNGRenderer{squareSize: squarePx, face: basicfont.Face7x13}
}

var errNilBoard = errors.New("board is nil")

func (r *PNGRenderer) RenderPNG(ctx context.Context, board *rules.Board, opts Options) ([]byte, error) {
	if board == nil {
		return nil, errNilBoard
	}
	sq := r.squareSize
	const (
		sideMargin   = 28
		topMargin    = 64
		bottomMargin = 28
		panelHeight  = 34
		panelRadius  = 10
	)
	boardSize := sq * rules.Size
	origin := image.Point{X: sideMargin, Y: topMargin}
	boardRect := image.Rect(origin.X, origin.Y, origin.X+boardSize, origin.Y+boardSize)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	r.drawHUD(img, opts, boardRect, panelHeight, panelRadius)
	drawSquares(img, sq, origin)
	if opts.Highlight != nil {
		drawHighlight(img, board, *opts.Highlight, sq, origin)
	}
	if opts.Checked != nil {
		drawSquareOverlay(img, *opts.Checked, sq, origin, checkOverlayColor)
	}
	if err := drawPieces(ctx, img, board, sq, origin); err != nil {
		return nil, err
	}
	r.drawCoordinates(img, sq, origin, sideMargin)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	backgroundColor     = color.RGBA{R: 22, G: 24, B: 34, A: 255}
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	whiteMoveFill       = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	blackMoveArrow      = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	checkOverlayColor   = color.NRGBA{R: 230, G: 60, B: 60, A: 150}
	hudPanelColor       = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudShadowColor      = color.NRGBA{0, 0, 0, 50}
	hudTextPrimary      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTextSecondary    = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

func squareRect(pos rules.Position, size int, origin image.Point) image.Rectangle {
	x := origin.X + pos.Col*size
	y := origin.Y + pos.Row*size
	return image.Rect(x, y, x+size, y+size)
}

// a1 (row 7, col 0) is dark.
func squareColor(pos rules.Position) color.Color {
	if (pos.Row+pos.Col)%2 == 1 {
		return darkSquare
	}
	return lightSquare
}

func drawSquares(dst imagedraw.Image, size int, origin image.Point) {
	for row := 0; row < rules.Size; row++ {
		for col := 0; col < rules.Size; col++ {
			pos := rules.Pos(row, col)
			imagedraw.Draw(dst, squareRect(pos, size, origin), image.NewUniform(squareColor(pos)), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(ctx context.Context, dst imagedraw.Image, board *rules.Board, size int, origin image.Point) error {
	for _, pl := range board.All() {
		if err := ctx.Err(); err != nil {
			return err
		}
		glyph, err := glyphImage(pl.Piece, size)
		if err != nil {
			return err
		}
		imagedraw.Draw(dst, squareRect(pl.Pos, size, origin), glyph, image.Point{}, imagedraw.Over)
	}
	return nil
}

// White moves get filled squares, Black moves an arrow.
func drawHighlight(img *image.RGBA, board *rules.Board, h Highlight, size int, origin image.Point) {
	mover, ok := board.PieceAt(h.To)
	if ok && mover.Color == rules.White {
		drawSquareOverlay(img, h.From, size, origin, whiteMoveFill)
		drawSquareOverlay(img, h.To, size, origin, whiteMoveFill)
		return
	}
	drawArrow(img, h.From, h.To, size, origin, blackMoveArrow)
}

func drawSquareOverlay(img *image.RGBA, pos rules.Position, size int, origin image.Point, clr color.Color) {
	imagedraw.Draw(img, squareRect(pos, size, origin), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawArrow(img *image.RGBA, from, to rules.Position, size int, origin image.Point, clr color.Color) {
	if from == to {
		return
	}
	a := squareRect(from, size, origin)
	b := squareRect(to, size, origin)
	sx, sy := float64(a.Min.X+size/2), float64(a.Min.Y+size/2)
	ex, ey := float64(b.Min.X+size/2), float64(b.Min.Y+size/2)

	dx, dy := ex-sx, ey-sy
	length := math.Hypot(dx, dy)
	dirX, dirY := dx/length, dy/length
	perpX, perpY := -dirY, dirX

	shaft := length - float64(size)*0.45
	if shaft < float64(size)*0.35 {
		shaft = length * 0.6
	}
	half := float64(size) * 0.12
	head := float64(size) * 0.3
	bx, by := sx+dirX*shaft, sy+dirY*shaft

	fillTriangle(img, pointF{sx - perpX*half, sy - perpY*half}, pointF{sx + perpX*half, sy + perpY*half}, pointF{bx + perpX*half, by + perpY*half}, clr)
	fillTriangle(img, pointF{sx - perpX*half, sy - perpY*half}, pointF{bx + perpX*half, by + perpY*half}, pointF{bx - perpX*half, by - perpY*half}, clr)
	fillTriangle(img, pointF{ex, ey}, pointF{bx - perpX*head, by - perpY*head}, pointF{bx + perpX*head, by + perpY*head}, clr)
}

func (r *PNGRenderer) drawHUD(img *image.RGBA, opts Options, boardRect image.Rectangle, height, radius int) {
	header := strings.TrimSpace(opts.Header)
	if header == "" {
		header = "Chess"
	}
	panel := image.Rect(boardRect.Min.X, boardRect.Min.Y-height-14, boardRect.Max.X, boardRect.Min.Y-14)
	drawRoundedPanel(img, panel.Add(image.Pt(0, 4)), radius, hudShadowColor)
	drawRoundedPanel(img, panel, radius, hudPanelColor)

	drawer := &font.Drawer{Dst: img, Face: r.face}
	metrics := r.face.Metrics()
	baseline := panel.Min.Y + (panel.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2

	drawer.Src = image.NewUniform(hudTextPrimary)
	drawer.Dot = fixed.P(panel.Min.X+14, baseline)
	drawer.DrawString(truncate(r.face, header, panel.Dx()/2-14))

	if caption := strings.TrimSpace(opts.Caption); caption != "" {
		caption = truncate(r.face, caption, panel.Dx()/2-14)
		w := drawer.MeasureString(caption).Round()
		drawer.Src = image.NewUniform(hudTextSecondary)
		drawer.Dot = fixed.P(panel.Max.X-14-w, baseline)
		drawer.DrawString(caption)
	}
}

func (r *PNGRenderer) drawCoordinates(img *image.RGBA, size int, origin image.Point, margin int) {
	drawer := &font.Drawer{Dst: img, Face: r.face, Src: image.NewUniform(coordinateTextColor)}
	ascent := r.face.Metrics().Ascent.Ceil()
	for i := 0; i < rules.Size; i++ {
		rank := fmt.Sprintf("%d", rules.Size-i)
		centerText(drawer, rank, origin.X-margin/2, origin.Y+i*size+size/2+ascent/2)
		file := string(rune('a' + i))
		centerText(drawer, file, origin.X+i*size+size/2, origin.Y+rules.Size*size+ascent+4)
	}
}

func centerText(d *font.Drawer, text string, centerX, baseline int) {
	w := d.MeasureString(text).Round()
	d.Dot = fixed.P(centerX-w/2, baseline)
	d.DrawString(text)
}

func truncate(face font.Face, text string, maxWidth int) string {
	d := font.Drawer{Face: face}
	if maxWidth <= 0 || d.MeasureString(text).Round() <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		if c := string(runes) + "..."; d.MeasureString(c).Round() <= maxWidth {
			return c
		}
	}
	return ""
}
