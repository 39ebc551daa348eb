package compositor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"creative-automation/internal/variant"
)

var red = color.NRGBA{R: 0xd0, G: 0x10, B: 0x10, A: 0xff}

func sourcePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(w, h, red)))
	return buf.Bytes()
}

func greenLogo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, imaging.Save(imaging.New(100, 50, color.NRGBA{G: 0xc0, A: 0xff}), path))
	return path
}

func decode(t *testing.T, raw []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func hasWhite(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r>>8 > 240 && g>>8 > 240 && bl>>8 > 240 {
				return true
			}
		}
	}
	return false
}

func TestCompositeOutputDimensions(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	src := sourcePNG(t, 640, 480)

	for _, v := range variant.All() {
		t.Run(v.String(), func(t *testing.T) {
			out, err := c.Composite(src, v, "Professional safety equipment", "Made in Germany")
			require.NoError(t, err)
			img := decode(t, out)
			spec := v.Spec()
			assert.Equal(t, spec.Width, img.Bounds().Dx())
			assert.Equal(t, spec.Height, img.Bounds().Dy())
		})
	}
}

func TestCompositeIsDeterministic(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	src := sourcePNG(t, 300, 300)

	a, err := c.Composite(src, variant.Landscape, "Built for the job", "Made in Germany")
	require.NoError(t, err)
	b, err := c.Composite(src, variant.Landscape, "Built for the job", "Made in Germany")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCompositePlacesLogoBottomRight(t *testing.T) {
	c, err := New(Options{LogoPath: greenLogo(t)})
	require.NoError(t, err)

	out, err := c.Composite(sourcePNG(t, 200, 200), variant.Square, "", "")
	require.NoError(t, err)
	img := decode(t, out)

	r, g, _, _ := img.At(1024-margin-5, 1024-margin-5).RGBA()
	assert.Greater(t, g>>8, r>>8, "logo pixel should be green")

	r, g, _, _ = img.At(margin, margin).RGBA()
	assert.Greater(t, r>>8, g>>8, "top-left should still be the source image")

	r, _, _, _ = img.At(1024-margin/2, 1024-margin/2).RGBA()
	assert.Greater(t, r>>8, uint32(0xa0), "margin is left untouched")
}

func TestCompositeDrawsText(t *testing.T) {
	c, err := New(Options{LogoPath: greenLogo(t)})
	require.NoError(t, err)
	src := sourcePNG(t, 200, 200)

	plain, err := c.Composite(src, variant.Portrait, "", "")
	require.NoError(t, err)
	assert.False(t, hasWhite(decode(t, plain)))

	withText, err := c.Composite(src, variant.Portrait, "Sicherheit zuerst", "Made in Germany")
	require.NoError(t, err)
	assert.True(t, hasWhite(decode(t, withText)))
}

func TestCompositeRejectsMalformedImage(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)

	_, err = c.Composite([]byte("not an image"), variant.Square, "hi", "")
	assert.ErrorIs(t, err, ErrComposite)

	_, err = c.Composite(nil, variant.Square, "hi", "")
	assert.ErrorIs(t, err, ErrComposite)

	_, err = c.Composite(sourcePNG(t, 10, 10), variant.Variant(9), "hi", "")
	assert.ErrorIs(t, err, ErrComposite)
}

func TestNewFailsOnMissingAssets(t *testing.T) {
	_, err := New(Options{LogoPath: filepath.Join(t.TempDir(), "missing.png")})
	assert.Error(t, err)

	_, err = New(Options{FontPath: filepath.Join(t.TempDir(), "missing.ttf")})
	assert.Error(t, err)
}

func TestWrapText(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	face, err := opentype.NewFace(c.font, &opentype.FaceOptions{Size: 40, DPI: 72, Hinting: font.HintingFull})
	require.NoError(t, err)
	defer face.Close()

	lines := wrapText(face, "Professional safety equipment for every site", 300)
	require.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.LessOrEqual(t, font.MeasureString(face, l).Ceil(), 300, l)
	}

	lines = wrapText(face, "Arbeitssicherheitsausrüstungsgegenstände", 200)
	require.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.LessOrEqual(t, font.MeasureString(face, l).Ceil(), 200, l)
	}
}

func TestFitTruncatesWithEllipsis(t *testing.T) {
	var logs bytes.Buffer
	c, err := New(Options{Logger: slog.New(slog.NewTextHandler(&logs, nil))})
	require.NoError(t, err)

	long := strings.Repeat("Professional safety equipment for every site ", 20)
	face, lines, err := c.fit(long, minFontSize, 300, maxLines)
	require.NoError(t, err)
	defer face.Close()

	require.Len(t, lines, maxLines)
	last := lines[maxLines-1]
	assert.True(t, strings.HasSuffix(last, "…"), last)
	assert.LessOrEqual(t, font.MeasureString(face, last).Ceil(), 300, last)
	assert.Contains(t, logs.String(), "message truncated to fit")
}

func TestFitKeepsShortText(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)

	face, lines, err := c.fit("Built tough", 40, 600, maxLines)
	require.NoError(t, err)
	defer face.Close()
	assert.Equal(t, []string{"Built tough"}, lines)
}

func TestMissingGlyphDetectsCJK(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)

	_, missing := c.missingGlyph("Professionelle Ausrüstung")
	assert.False(t, missing)

	r, missing := c.missingGlyph("プロ仕様の安全装備")
	assert.True(t, missing)
	assert.Equal(t, 'プ', r)
}
