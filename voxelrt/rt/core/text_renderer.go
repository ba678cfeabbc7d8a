package core

import (
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const AtlasSize = 512

type TextVertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color [4]float32
}

type TextItem struct {
	Text     string
	Position [2]float32 // pixels from the top-left corner
	Scale    float32
	Color    [4]float32
}

type GlyphInfo struct {
	UVMin [2]float32
	UVMax [2]float32
	Size  [2]float32
	Off   [2]float32
	Adv   float32
}

// TextRenderer rasterizes printable ASCII into a single alpha atlas and
// builds screen-space quads for HUD text.
type TextRenderer struct {
	Atlas  *image.Alpha
	Glyphs map[rune]GlyphInfo
	Face   font.Face
}

// NewTextRenderer parses ttf, or the Go Regular face when ttf is nil.
func NewTextRenderer(ttf []byte, size float64) (*TextRenderer, error) {
	if ttf == nil {
		ttf = goregular.TTF
	}
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}

	tr := &TextRenderer{
		Atlas:  image.NewAlpha(image.Rect(0, 0, AtlasSize, AtlasSize)),
		Glyphs: make(map[rune]GlyphInfo),
		Face:   face,
	}
	tr.pack()
	return tr, nil
}

func (tr *TextRenderer) pack() {
	const pad = 4
	x, y, rowHeight := 2, 2, 0

	for r := rune(32); r < 127; r++ {
		bounds, mask, _, adv, ok := tr.Face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		w, h := mask.Bounds().Dx(), mask.Bounds().Dy()

		if x+w >= AtlasSize {
			x = 2
			y += rowHeight + pad
			rowHeight = 0
		}
		if y+h >= AtlasSize {
			return
		}

		draw.Draw(tr.Atlas, image.Rect(x, y, x+w, y+h), mask, mask.Bounds().Min, draw.Src)
		tr.Glyphs[r] = GlyphInfo{
			UVMin: [2]float32{float32(x) / AtlasSize, float32(y) / AtlasSize},
			UVMax: [2]float32{float32(x+w) / AtlasSize, float32(y+h) / AtlasSize},
			Size:  [2]float32{float32(w), float32(h)},
			Off:   [2]float32{float32(bounds.Min.X), float32(bounds.Min.Y)},
			Adv:   float32(adv) / 64.0,
		}

		x += w + pad
		if h > rowHeight {
			rowHeight = h
		}
	}
}

// BuildVertices emits two triangles per glyph in clip space.
func (tr *TextRenderer) BuildVertices(items []TextItem, screenW, screenH int) []TextVertex {
	vertices := make([]TextVertex, 0, len(items)*6)
	if screenW <= 0 || screenH <= 0 {
		return vertices
	}

	toClip := func(px, py float32) (float32, float32) {
		return px/float32(screenW)*2 - 1, 1 - py/float32(screenH)*2
	}
	ascent := float32(tr.Face.Metrics().Ascent.Ceil())
	line := tr.LineHeight(1)

	for _, item := range items {
		pen := [2]float32{item.Position[0], item.Position[1] + ascent*item.Scale}
		for _, r := range item.Text {
			if r == '\n' {
				pen[0] = item.Position[0]
				pen[1] += line * item.Scale
				continue
			}
			g, ok := tr.Glyphs[r]
			if !ok {
				continue
			}
			x0, y0 := toClip(pen[0]+g.Off[0]*item.Scale, pen[1]+g.Off[1]*item.Scale)
			x1, y1 := toClip(pen[0]+(g.Off[0]+g.Size[0])*item.Scale, pen[1]+(g.Off[1]+g.Size[1])*item.Scale)
			vertices = appendQuad(vertices, [4]float32{x0, y0, x1, y1}, g, item.Color)
			pen[0] += g.Adv * item.Scale
		}
	}
	return vertices
}

// appendQuad adds the triangles (tl, tr, bl) and (tr, br, bl).
func appendQuad(vs []TextVertex, rect [4]float32, g GlyphInfo, color [4]float32) []TextVertex {
	corner := func(right, bottom bool) TextVertex {
		v := TextVertex{Pos: [2]float32{rect[0], rect[1]}, UV: g.UVMin, Color: color}
		if right {
			v.Pos[0], v.UV[0] = rect[2], g.UVMax[0]
		}
		if bottom {
			v.Pos[1], v.UV[1] = rect[3], g.UVMax[1]
		}
		return v
	}
	tl, tr, bl, br := corner(false, false), corner(true, false), corner(false, true), corner(true, true)
	return append(vs, tl, tr, bl, tr, br, bl)
}

func (tr *TextRenderer) MeasureText(text string, scale float32) (float32, float32) {
	if tr == nil {
		return 0, 0
	}
	maxW, currentW := float32(0), float32(0)
	lines := 1

	for _, r := range text {
		if r == '\n' {
			maxW = max(maxW, currentW)
			currentW = 0
			lines++
			continue
		}
		if g, ok := tr.Glyphs[r]; ok {
			currentW += g.Adv * scale
		}
	}
	return max(maxW, currentW), tr.LineHeight(scale) * float32(lines)
}

func (tr *TextRenderer) LineHeight(scale float32) float32 {
	if tr == nil {
		return 0
	}
	return float32(tr.Face.Metrics().Height.Ceil()) * scale
}
