package solidbg

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

var (
	// ErrDegenerateImage 宽或高为 0 的图片，不做任何处理
	ErrDegenerateImage = errors.New("degenerate image")
)

// PixelBuffer 解码后的像素数据
//
//	Data 按行存储，每个像素 R,G,B,A 四个字节，非预乘 alpha，没有行填充
//	len(Data) == Width*Height*4，创建后不再改变大小
type PixelBuffer struct {
	Width  int
	Height int
	Data   []byte
}

func NewPixelBuffer(width, height int) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDegenerateImage, width, height)
	}
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Data:   make([]byte, width*height*4),
	}, nil
}

// FromImage 把任意图片拷贝成 PixelBuffer（坐标原点归零，转为 NRGBA）
func FromImage(img image.Image) (*PixelBuffer, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrDegenerateImage)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDegenerateImage, b.Dx(), b.Dy())
	}

	nrgba := imaging.Clone(img)
	w, h := nrgba.Bounds().Dx(), nrgba.Bounds().Dy()

	// imaging.Clone 的 Stride 总是 w*4，这里仍按行拷贝，不依赖这一点
	buf := &PixelBuffer{Width: w, Height: h, Data: make([]byte, w*h*4)}
	for y := 0; y < h; y++ {
		copy(buf.Data[y*w*4:(y+1)*w*4], nrgba.Pix[y*nrgba.Stride:y*nrgba.Stride+w*4])
	}
	return buf, nil
}

// NRGBA 返回共享 Data 的图片视图，不拷贝
func (b *PixelBuffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Data,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

func (b *PixelBuffer) Offset(x, y int) int {
	return (y*b.Width + x) * 4
}
