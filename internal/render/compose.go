package render

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/yildizm/FlowTrack/internal/session"
	"github.com/yildizm/FlowTrack/internal/video"
)

var (
	// CaptureColor marks points captured in the current run
	CaptureColor = color.RGBA{R: 0, G: 230, B: 0, A: 255}

	// ReplayColor marks the point being replayed
	ReplayColor = color.RGBA{R: 230, G: 0, B: 0, A: 255}

	textColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	shadowColor = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// Overlay is everything drawn on top of a frame
type Overlay struct {
	// Width and Height of the composed image. Zero keeps the frame size.
	Width, Height int

	// SourceWidth and SourceHeight are the pixel space of point coordinates
	SourceWidth, SourceHeight int

	Points []session.Point
	Replay *session.Point

	// MarkerRadius in composed pixels; zero draws single pixels
	MarkerRadius int

	// Lines are drawn top-left with basicfont
	Lines []string
}

// Compose draws the overlay onto a scaled copy of the frame. The frame is
// never modified, so every call starts from clean pixels.
func Compose(frame *video.Frame, ov Overlay) *image.RGBA {
	src := frame.Image
	bounds := src.Bounds()

	w, h := ov.Width, ov.Height
	if w <= 0 || h <= 0 {
		w, h = bounds.Dx(), bounds.Dy()
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == bounds.Dx() && h == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	} else {
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	}

	srcW, srcH := ov.SourceWidth, ov.SourceHeight
	if srcW <= 0 || srcH <= 0 {
		srcW, srcH = bounds.Dx(), bounds.Dy()
	}
	toComposed := func(p session.Point) (int, int) {
		return p.X * w / srcW, p.Y * h / srcH
	}

	for _, p := range ov.Points {
		x, y := toComposed(p)
		drawMarker(dst, x, y, ov.MarkerRadius, CaptureColor)
	}
	if ov.Replay != nil {
		x, y := toComposed(*ov.Replay)
		drawMarker(dst, x, y, ov.MarkerRadius+1, ReplayColor)
	}

	drawLines(dst, ov.Lines)
	return dst
}

// drawMarker fills a disc of radius r centred on (cx, cy)
func drawMarker(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	b := img.Bounds()
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy > r*r {
				continue
			}
			if image.Pt(x, y).In(b) {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

// drawLines writes text with a one-pixel shadow so it reads on any frame
func drawLines(img *image.RGBA, lines []string) {
	if len(lines) == 0 {
		return
	}

	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil()
	ascent := face.Metrics().Ascent.Ceil()

	shadow := &font.Drawer{Dst: img, Src: image.NewUniform(shadowColor), Face: face}
	text := &font.Drawer{Dst: img, Src: image.NewUniform(textColor), Face: face}

	x := 6
	for i, line := range lines {
		y := 6 + ascent + i*lineHeight
		shadow.Dot = fixed.Point26_6{X: fixed.I(x + 1), Y: fixed.I(y + 1)}
		shadow.DrawString(line)
		text.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
		text.DrawString(line)
	}
}
