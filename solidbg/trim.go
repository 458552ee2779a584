package solidbg

import (
	"errors"
	"image"

	"golang.org/x/image/draw"
)

var ErrEmptyForeground = errors.New("no foreground pixels left")

// Trim 按 alpha 包围盒裁剪，去掉四周完全透明的边
// 把 alpha > threshold 的像素当作“主体”
func Trim(img *image.NRGBA, threshold uint8) (*image.NRGBA, error) {
	bbox, err := alphaBBox(img, threshold)
	if err != nil {
		return nil, err
	}
	if bbox == img.Bounds() {
		return img, nil
	}

	dst := image.NewNRGBA(image.Rect(0, 0, bbox.Dx(), bbox.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bbox.Min, draw.Src)
	return dst, nil
}

// alphaBBox 从 alpha 通道计算主体 bounding box
func alphaBBox(img *image.NRGBA, threshold uint8) (image.Rectangle, error) {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x, row = x+1, row+4 {
			if img.Pix[row+3] <= threshold {
				continue
			}
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
		}
	}

	if maxX < minX {
		return image.Rectangle{}, ErrEmptyForeground
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), nil
}
