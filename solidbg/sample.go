package solidbg

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	minSampleSize   = 8
	sampleFraction  = 0.02
	minSampledAlpha = 16 // 低于此值视为已透明，不参与背景估计
)

// Color 背景估计的中间结果，各通道取值 [0,255]
type Color struct {
	R, G, B float64
}

// Hex 例如 #ffffff
func (c Color) Hex() string {
	return colorful.Color{R: c.R / 255, G: c.G / 255, B: c.B / 255}.Clamped().Hex()
}

// SampleSize 角落采样边长：随分辨率变化，但不小于 8px
func SampleSize(width, height int) int {
	return max(minSampleSize, int(math.Floor(float64(min(width, height))*sampleFraction)))
}

// SampleCorner 计算 [sx, sx+size) × [sy, sy+size) 内 alpha ≥ 16 的像素的平均 RGB
// 起点先夹到图内，终点夹到 (Width, Height)，不会越界
// 区域内没有可用像素时返回 Color{}
func SampleCorner(buf *PixelBuffer, sx, sy, size int) Color {
	w, h := buf.Width, buf.Height
	x0 := clamp(sx, 0, w-1)
	y0 := clamp(sy, 0, h-1)
	x1 := clamp(x0+size, 0, w)
	y1 := clamp(y0+size, 0, h)

	var r, g, b float64
	n := 0
	for y := y0; y < y1; y++ {
		i := buf.Offset(x0, y)
		for x := x0; x < x1; x, i = x+1, i+4 {
			if buf.Data[i+3] < minSampledAlpha {
				continue
			}
			r += float64(buf.Data[i])
			g += float64(buf.Data[i+1])
			b += float64(buf.Data[i+2])
			n++
		}
	}
	if n == 0 {
		return Color{}
	}
	return Color{R: r / float64(n), G: g / float64(n), B: b / float64(n)}
}

// Corners 依次采样左上、右上、左下、右下四个角
func Corners(buf *PixelBuffer) [4]Color {
	s := SampleSize(buf.Width, buf.Height)
	right, bottom := buf.Width-s, buf.Height-s
	return [4]Color{
		SampleCorner(buf, 0, 0, s),
		SampleCorner(buf, right, 0, s),
		SampleCorner(buf, 0, bottom, s),
		SampleCorner(buf, right, bottom, s),
	}
}

// EstimateBackground 四个角的简单平均，没有权重
func EstimateBackground(corners [4]Color) Color {
	var bg Color
	for _, c := range corners {
		bg.R += c.R
		bg.G += c.G
		bg.B += c.B
	}
	bg.R /= 4
	bg.G /= 4
	bg.B /= 4
	return bg
}

func Background(buf *PixelBuffer) Color {
	return EstimateBackground(Corners(buf))
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
