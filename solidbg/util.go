package solidbg

import (
	"image"

	"github.com/nfnt/resize"
)

// ResizeWithinMax 缩放（最长边 <= maxSize），maxSize <= 0 时原样返回
func ResizeWithinMax(img image.Image, maxSize int) image.Image {
	if maxSize <= 0 {
		return img
	}

	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	longest := max(w, h)
	if longest <= maxSize {
		return img
	}

	scale := float64(maxSize) / float64(longest)
	newW := max(1, int(float64(w)*scale))
	newH := max(1, int(float64(h)*scale))

	return resize.Resize(uint(newW), uint(newH), img, resize.Lanczos3)
}

// HasTransparency alpha 通道里是否已经存在非 255 的像素
func HasTransparency(buf *PixelBuffer) bool {
	for i := 3; i < len(buf.Data); i += 4 {
		if buf.Data[i] != 255 {
			return true
		}
	}
	return false
}
