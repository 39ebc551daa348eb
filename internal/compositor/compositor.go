// Package compositor turns a raw generated image into the branded creative:
// exact variant dimensions, logo bottom-right, outlined message and region
// label above it.
package compositor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"creative-automation/internal/variant"
)

var ErrComposite = errors.New("composite failed")

const (
	margin       = 20
	logoOpacity  = 0.9
	outlineWidth = 2
	minFontSize  = 18
	maxLines     = 3
	labelScale   = 0.55
)

type layout struct {
	fontSize float64
	logoBox  int
}

var layouts = map[variant.Variant]layout{
	variant.Square:    {fontSize: 44, logoBox: 160},
	variant.Landscape: {fontSize: 38, logoBox: 120},
	variant.Portrait:  {fontSize: 40, logoBox: 140},
}

type Options struct {
	LogoPath string
	FontPath string
	Logger   *slog.Logger
}

// Compositor holds the decoded logo and parsed font. Both are read-only;
// font faces are created per call.
type Compositor struct {
	logo   image.Image
	font   *opentype.Font
	logger *slog.Logger
}

func New(opts Options) (*Compositor, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var logo image.Image
	if p := strings.TrimSpace(opts.LogoPath); p != "" {
		img, err := imaging.Open(p)
		if err != nil {
			return nil, fmt.Errorf("load logo: %w", err)
		}
		logo = img
	} else {
		logo = defaultLogo()
	}

	ttf := gobold.TTF
	if p := strings.TrimSpace(opts.FontPath); p != "" {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("load font: %w", err)
		}
		ttf = raw
	}
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	return &Compositor{logo: logo, font: f, logger: logger}, nil
}

// Composite renders the creative for v and returns it PNG-encoded. The output
// depends only on its inputs.
func (c *Compositor) Composite(raw []byte, v variant.Variant, message, label string) ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: invalid variant %d", ErrComposite, int(v))
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decode source image: %w", ErrComposite, err)
	}

	spec := v.Spec()
	lay := layouts[v]
	canvas := imaging.Fill(src, spec.Width, spec.Height, imaging.Center, imaging.Lanczos)

	logo := imaging.Fit(c.logo, lay.logoBox, lay.logoBox, imaging.Lanczos)
	lb := logo.Bounds()
	logoTop := spec.Height - margin - lb.Dy()
	canvas = imaging.Overlay(canvas, logo, image.Pt(spec.Width-margin-lb.Dx(), logoTop), logoOpacity)

	bottom := logoTop - margin/2
	if label = strings.TrimSpace(label); label != "" {
		bottom, err = c.drawBlock(canvas, label, lay.fontSize*labelScale, bottom, 1)
		if err != nil {
			return nil, err
		}
		bottom -= margin / 2
	}
	if message = strings.TrimSpace(message); message != "" {
		if r, ok := c.missingGlyph(message); ok {
			c.logger.Warn("font has no glyph for message text, set FONT_PATH", "rune", string(r))
		}
		if _, err := c.drawBlock(canvas, message, lay.fontSize, bottom, maxLines); err != nil {
			return nil, err
		}
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, canvas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrComposite, err)
	}
	return out.Bytes(), nil
}

// drawBlock draws text centered horizontally with its last line ending at
// bottom and returns the top edge of the block. The font shrinks from size
// until the text fits in lines rows of the frame width.
func (c *Compositor) drawBlock(dst *image.NRGBA, text string, size float64, bottom, lines int) (int, error) {
	maxWidth := dst.Bounds().Dx() - 2*margin
	face, wrapped, err := c.fit(text, size, maxWidth, lines)
	if err != nil {
		return bottom, err
	}
	defer face.Close()

	m := face.Metrics()
	lineHeight := (m.Ascent + m.Descent).Ceil()
	top := bottom - lineHeight*len(wrapped)

	for i, line := range wrapped {
		width := font.MeasureString(face, line).Ceil()
		x := (dst.Bounds().Dx() - width) / 2
		baseline := top + i*lineHeight + m.Ascent.Ceil()
		drawOutlined(dst, face, line, x, baseline)
	}
	return top, nil
}

func (c *Compositor) fit(text string, size float64, maxWidth, lines int) (font.Face, []string, error) {
	for {
		face, err := opentype.NewFace(c.font, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			return nil, nil, fmt.Errorf("%w: font face: %w", ErrComposite, err)
		}
		wrapped := wrapText(face, text, maxWidth)
		if len(wrapped) <= lines || size <= minFontSize {
			if len(wrapped) > lines {
				c.logger.Warn("message truncated to fit", "lines", len(wrapped), "max_lines", lines, "font_size", size)
				wrapped = wrapped[:lines]
				wrapped[lines-1] = ellipsize(face, wrapped[lines-1], maxWidth)
			}
			return face, wrapped, nil
		}
		face.Close()
		size -= 2
	}
}

// missingGlyph reports the first rune of text the loaded font cannot draw.
func (c *Compositor) missingGlyph(text string) (rune, bool) {
	var buf sfnt.Buffer
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		if idx, err := c.font.GlyphIndex(&buf, r); err != nil || idx == 0 {
			return r, true
		}
	}
	return 0, false
}

// ellipsize drops trailing runes from line until it fits maxWidth with a
// trailing ellipsis.
func ellipsize(face font.Face, line string, maxWidth int) string {
	const ellipsis = "…"
	r := []rune(strings.TrimSpace(line))
	for len(r) > 0 && font.MeasureString(face, string(r)+ellipsis).Ceil() > maxWidth {
		r = r[:len(r)-1]
	}
	return strings.TrimRight(string(r), " ") + ellipsis
}

func drawOutlined(dst *image.NRGBA, face font.Face, text string, x, y int) {
	d := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(color.Black)}
	for dy := -outlineWidth; dy <= outlineWidth; dy++ {
		for dx := -outlineWidth; dx <= outlineWidth; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			d.Dot = fixed.P(x+dx, y+dy)
			d.DrawString(text)
		}
	}
	d.Src = image.NewUniform(color.White)
	d.Dot = fixed.P(x, y)
	d.DrawString(text)
}

// wrapText greedily packs words into lines no wider than maxWidth. Words that
// are wider than a line on their own are split by rune.
func wrapText(face font.Face, text string, maxWidth int) []string {
	width := func(s string) int { return font.MeasureString(face, s).Ceil() }

	var lines []string
	var cur string
	for _, word := range strings.Fields(text) {
		for width(word) > maxWidth {
			if cur != "" {
				lines = append(lines, cur)
				cur = ""
			}
			head, rest := splitToWidth(word, maxWidth, width)
			lines = append(lines, head)
			word = rest
		}
		if word == "" {
			continue
		}
		if cur == "" {
			cur = word
			continue
		}
		if width(cur+" "+word) <= maxWidth {
			cur += " " + word
			continue
		}
		lines = append(lines, cur)
		cur = word
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

func splitToWidth(word string, maxWidth int, width func(string) int) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && width(string(runes[:n+1])) <= maxWidth {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}

func defaultLogo() image.Image {
	navy := color.NRGBA{R: 0x1b, G: 0x2a, B: 0x4a, A: 0xff}
	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	accent := color.NRGBA{R: 0xf2, G: 0x8c, B: 0x28, A: 0xff}

	logo := imaging.New(200, 200, navy)
	logo = imaging.Paste(logo, imaging.New(160, 160, white), image.Pt(20, 20))
	logo = imaging.Paste(logo, imaging.New(140, 140, navy), image.Pt(30, 30))
	logo = imaging.Paste(logo, imaging.New(70, 70, accent), image.Pt(65, 65))
	return logo
}
