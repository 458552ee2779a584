package solidbg

import (
	"math"

	"golang.org/x/sync/errgroup"
)

const (
	HardThreshold = 32 * 32 // 平方距离 ≤ hard：完全透明
	SoftThreshold = 70 * 70 // hard < d ≤ soft：羽化

	minMaskedAlpha = 8

	// 每个并行任务至少处理的行数
	minBandRows = 64
)

// Options 一次去背景的参数
type Options struct {
	// Workers > 1 时按行分段并行处理，结果与串行完全一致
	Workers int
}

// Remove 角落采样 → 背景估计 → alpha 遮罩，原地修改 buf，返回估计出的背景色
func Remove(buf *PixelBuffer, opts Options) (Color, error) {
	if buf == nil || buf.Width <= 0 || buf.Height <= 0 {
		return Color{}, ErrDegenerateImage
	}

	bg := Background(buf)
	if err := MaskAlphaParallel(buf, bg, opts.Workers); err != nil {
		return Color{}, err
	}
	return bg, nil
}

// MaskAlpha 串行遍历所有像素，按到背景色的平方距离改写 alpha
func MaskAlpha(buf *PixelBuffer, bg Color) {
	maskRows(buf, bg, 0, buf.Height)
}

// MaskAlphaParallel 每个像素只读自己原来的 RGB，与遍历顺序无关，可以按行切分
func MaskAlphaParallel(buf *PixelBuffer, bg Color, workers int) error {
	if workers <= 1 || buf.Height < 2*minBandRows {
		MaskAlpha(buf, bg)
		return nil
	}

	band := max(minBandRows, (buf.Height+workers-1)/workers)

	var g errgroup.Group
	g.SetLimit(workers)
	for y0 := 0; y0 < buf.Height; y0 += band {
		y0 := y0
		y1 := min(y0+band, buf.Height)
		g.Go(func() error {
			maskRows(buf, bg, y0, y1)
			return nil
		})
	}
	return g.Wait()
}

func maskRows(buf *PixelBuffer, bg Color, y0, y1 int) {
	data := buf.Data[y0*buf.Width*4 : y1*buf.Width*4]
	for i := 0; i < len(data); i += 4 {
		a := data[i+3]
		if a < minMaskedAlpha {
			continue
		}

		d := dist2(data[i], data[i+1], data[i+2], bg)
		if d <= HardThreshold {
			data[i+3] = 0
		} else if d <= SoftThreshold {
			// 越接近背景越透明
			t := (d - HardThreshold) / (SoftThreshold - HardThreshold)
			data[i+3] = uint8(math.Round(float64(a) * t))
		}
	}
}

func dist2(r, g, b uint8, bg Color) float64 {
	dr := float64(r) - bg.R
	dg := float64(g) - bg.G
	db := float64(b) - bg.B
	return dr*dr + dg*dg + db*db
}
