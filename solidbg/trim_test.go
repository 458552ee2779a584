package solidbg

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrim(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 10, 8))
	img.SetNRGBA(3, 2, color.NRGBA{R: 1, A: 255})
	img.SetNRGBA(6, 5, color.NRGBA{G: 1, A: 40})
	img.SetNRGBA(8, 7, color.NRGBA{B: 1, A: 10}) // 低于阈值

	got, err := Trim(img, 16)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), got.Bounds())
	assert.Equal(t, color.NRGBA{R: 1, A: 255}, got.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{G: 1, A: 40}, got.NRGBAAt(3, 3))
}

func TestTrim_NothingToCrop(t *testing.T) {
	t.Parallel()

	buf := fill(t, 4, 4, 9, 9, 9, 255)
	img := buf.NRGBA()
	got, err := Trim(img, 0)
	require.NoError(t, err)
	assert.Same(t, img, got)
}

func TestTrim_Empty(t *testing.T) {
	t.Parallel()

	_, err := Trim(image.NewNRGBA(image.Rect(0, 0, 5, 5)), 0)
	assert.ErrorIs(t, err, ErrEmptyForeground)
}

func TestResizeWithinMax(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 400, 200))
	assert.Same(t, img, ResizeWithinMax(img, 0))
	assert.Same(t, img, ResizeWithinMax(img, 400))

	got := ResizeWithinMax(img, 100)
	assert.Equal(t, 100, got.Bounds().Dx())
	assert.Equal(t, 50, got.Bounds().Dy())
}

func TestHasTransparency(t *testing.T) {
	t.Parallel()

	buf := fill(t, 3, 3, 0, 0, 0, 255)
	assert.False(t, HasTransparency(buf))
	set(buf, 1, 1, 0, 0, 0, 254)
	assert.True(t, HasTransparency(buf))
}
