package preview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"

	"github.com/ledongthuc/pdf"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/kirillkom/docstudio/internal/core/domain"
)

const (
	minGlyphSize = 4.0
	badgeSize    = 11.0
	badgePadding = 6
)

var (
	ruleColor  = color.RGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 0xff}
	badgeColor = color.RGBA{R: 0x21, G: 0x25, B: 0x29, A: 0xe0}
)

// RenderPage rasterises one page at the given scale and returns it as PNG.
// Text runs and rectangles are drawn; images and vector paths are not.
func (d *Document) RenderPage(ctx context.Context, number int, scale float64) (domain.PreviewPage, error) {
	if err := ctx.Err(); err != nil {
		return domain.PreviewPage{}, err
	}
	if number < 1 || number > len(d.sizes) {
		return domain.PreviewPage{}, fmt.Errorf("page %d out of range 1..%d", number, len(d.sizes))
	}
	if scale <= 0 {
		scale = domain.DefaultPreviewScale
	}

	size := d.sizes[number-1]
	width := max(1, int(math.Round(size.width*scale)))
	height := max(1, int(math.Round(size.height*scale)))

	content, err := d.content(number)
	if err != nil {
		return domain.PreviewPage{}, err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	for _, r := range content.Rect {
		strokeRect(canvas, scaleRect(r, scale, height), ruleColor)
	}

	faces := newFaceSet(d.toolkit.font)
	defer faces.Close()

	for _, text := range content.Text {
		if err := ctx.Err(); err != nil {
			return domain.PreviewPage{}, err
		}
		face, err := faces.face(math.Max(text.FontSize*scale, minGlyphSize))
		if err != nil {
			return domain.PreviewPage{}, fmt.Errorf("page %d font: %w", number, err)
		}
		drawer := font.Drawer{
			Dst:  canvas,
			Src:  image.Black,
			Face: face,
			Dot:  fixed.P(int(math.Round(text.X*scale)), height-int(math.Round(text.Y*scale))),
		}
		drawer.DrawString(text.S)
	}

	if err := drawBadge(canvas, faces, number); err != nil {
		return domain.PreviewPage{}, fmt.Errorf("page %d badge: %w", number, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return domain.PreviewPage{}, fmt.Errorf("encode page %d: %w", number, err)
	}
	return domain.PreviewPage{
		Number: number,
		Width:  width,
		Height: height,
		PNG:    buf.Bytes(),
	}, nil
}

// scaleRect flips a PDF rectangle (origin bottom-left) into image space.
func scaleRect(r pdf.Rect, scale float64, height int) image.Rectangle {
	x0 := int(math.Round(r.Min.X * scale))
	x1 := int(math.Round(r.Max.X * scale))
	y0 := height - int(math.Round(r.Max.Y*scale))
	y1 := height - int(math.Round(r.Min.Y*scale))
	return image.Rect(x0, y0, x1, y1)
}

func strokeRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Over)
	}
}

// drawBadge paints the page number in the top-right corner.
func drawBadge(dst *image.RGBA, faces *faceSet, number int) error {
	face, err := faces.face(badgeSize)
	if err != nil {
		return err
	}
	label := strconv.Itoa(number)
	textWidth := font.MeasureString(face, label).Ceil()
	metrics := face.Metrics()
	textHeight := (metrics.Ascent + metrics.Descent).Ceil()

	bounds := dst.Bounds()
	box := image.Rect(
		bounds.Max.X-textWidth-3*badgePadding,
		badgePadding,
		bounds.Max.X-badgePadding,
		badgePadding+textHeight+badgePadding,
	).Intersect(bounds)
	draw.Draw(dst, box, image.NewUniform(badgeColor), image.Point{}, draw.Over)

	drawer := font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(box.Min.X+badgePadding, box.Min.Y+badgePadding/2+metrics.Ascent.Ceil()),
	}
	drawer.DrawString(label)
	return nil
}

// faceSet caches faces by half-point size for a single render. Faces are
// not safe for concurrent use, so every page gets its own set.
type faceSet struct {
	font  *opentype.Font
	faces map[int]font.Face
}

func newFaceSet(f *opentype.Font) *faceSet {
	return &faceSet{font: f, faces: make(map[int]font.Face)}
}

func (s *faceSet) face(size float64) (font.Face, error) {
	key := int(math.Round(size * 2))
	if face, ok := s.faces[key]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(s.font, &opentype.FaceOptions{
		Size:    float64(key) / 2,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	s.faces[key] = face
	return face, nil
}

func (s *faceSet) Close() {
	for _, face := range s.faces {
		_ = face.Close()
	}
}
