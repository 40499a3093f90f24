package render

import (
	"image"
	"image/color"
	imagedraw "image/draw"
	"math"
)

type pointF struct {
	X float64
	Y float64
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if rect.Empty() {
		return
	}
	if m := min(rect.Dx(), rect.Dy()) / 2; radius > m {
		radius = m
	}
	fill := image.NewUniform(clr)
	if radius <= 0 {
		imagedraw.Draw(img, rect, fill, image.Point{}, imagedraw.Over)
		return
	}
	// three non-overlapping bands plus four corner discs
	imagedraw.Draw(img, image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)

	corners := []struct {
		center   image.Point
		left, up bool
	}{
		{image.Pt(rect.Min.X+radius, rect.Min.Y+radius), true, true},
		{image.Pt(rect.Max.X-radius-1, rect.Min.Y+radius), false, true},
		{image.Pt(rect.Min.X+radius, rect.Max.Y-radius-1), true, false},
		{image.Pt(rect.Max.X-radius-1, rect.Max.Y-radius-1), false, false},
	}
	r2 := radius * radius
	for _, c := range corners {
		for dy := 1; dy <= radius; dy++ {
			for dx := 0; dx <= radius; dx++ {
				if dx*dx+dy*dy > r2 {
					continue
				}
				x, y := c.center.X+dx, c.center.Y+dy
				if c.left {
					x = c.center.X - dx
				}
				if c.up {
					y = c.center.Y - dy
				}
				// only the quarter outside the bands
				if (c.left && x >= rect.Min.X+radius) || (!c.left && x <= rect.Max.X-radius-1) {
					continue
				}
				blendPixel(img, x, y, clr)
			}
		}
	}
}

func fillTriangle(img *image.RGBA, a, b, c pointF, clr color.Color) {
	minX := int(math.Floor(math.Min(a.X, math.Min(b.X, c.X))))
	maxX := int(math.Ceil(math.Max(a.X, math.Max(b.X, c.X))))
	minY := int(math.Floor(math.Min(a.Y, math.Min(b.Y, c.Y))))
	maxY := int(math.Ceil(math.Max(a.Y, math.Max(b.Y, c.Y))))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if inTriangle(float64(x)+0.5, float64(y)+0.5, a, b, c) {
				blendPixel(img, x, y, clr)
			}
		}
	}
}

func inTriangle(x, y float64, a, b, c pointF) bool {
	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if denom == 0 {
		return false
	}
	alpha := ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / denom
	beta := ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / denom
	return alpha >= 0 && beta >= 0 && 1-alpha-beta >= 0
}

// blendPixel composites clr over the pixel at (x, y) using straight alpha.
func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	a := float64(sa) / 0xffff
	dst := img.RGBAAt(x, y)
	mix := func(s uint32, d uint8) uint8 {
		v := float64(s)/0xffff*255 + float64(d)*(1-a)
		if v >= 255 {
			return 255
		}
		return uint8(v + 0.5)
	}
	img.SetRGBA(x, y, color.RGBA{
		R: mix(sr, dst.R),
		G: mix(sg, dst.G),
		B: mix(sb, dst.B),
		A: mix(sa, dst.A),
	})
}
