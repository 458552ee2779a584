package util

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"
	"sync"

	"github.com/disintegration/imaging"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const MimePNG = "image/png"

var ErrNotDataURL = errors.New("not a base64 data url")

// DecodeImage 解码图片字节，返回图片和格式名（"png", "jpeg", "webp" ...）
// JPEG 按 EXIF 方向自动旋转
func DecodeImage(data []byte) (image.Image, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode config: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", format, err)
	}
	return img, format, nil
}

var pngEncoder = png.Encoder{
	CompressionLevel: png.DefaultCompression,
	BufferPool:       (*bufferPool)(&sync.Pool{New: func() any { return &png.EncoderBuffer{} }}),
}

// EncodePNG PNG 支持 alpha 通道，去背景后的结果统一用它输出
func EncodePNG(w io.Writer, img image.Image) error {
	return pngEncoder.Encode(w, img)
}

func EncodePNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeDataURL 例如 data:image/png;base64,iVBORw0...
func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL 解析 base64 data url，返回 mime 和内容
func DecodeDataURL(s string) (string, []byte, error) {
	if !strings.HasPrefix(strings.ToLower(s), "data:") {
		return "", nil, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, ErrNotDataURL
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode base64: %w", err)
	}
	return mime, data, nil
}

func IsDataURL(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "data:")
}

type bufferPool sync.Pool

var _ png.EncoderBufferPool = (*bufferPool)(nil)

func (bp *bufferPool) Get() *png.EncoderBuffer {
	return (*sync.Pool)(bp).Get().(*png.EncoderBuffer)
}

func (bp *bufferPool) Put(eb *png.EncoderBuffer) {
	(*sync.Pool)(bp).Put(eb)
}
