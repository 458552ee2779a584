package solidbg

import "testing"

// fill 整张图填成同一颜色
func fill(t *testing.T, w, h int, r, g, b, a uint8) *PixelBuffer {
	t.Helper()
	buf, err := NewPixelBuffer(w, h)
	if err != nil {
		t.Fatalf("NewPixelBuffer(%d, %d) error = %v", w, h, err)
	}
	for i := 0; i < len(buf.Data); i += 4 {
		buf.Data[i], buf.Data[i+1], buf.Data[i+2], buf.Data[i+3] = r, g, b, a
	}
	return buf
}

func set(buf *PixelBuffer, x, y int, r, g, b, a uint8) {
	i := buf.Offset(x, y)
	buf.Data[i], buf.Data[i+1], buf.Data[i+2], buf.Data[i+3] = r, g, b, a
}

func alphaAt(buf *PixelBuffer, x, y int) uint8 {
	return buf.Data[buf.Offset(x, y)+3]
}

// paintCorners 把四个 size×size 的角落涂成背景色
func paintCorners(buf *PixelBuffer, size int, r, g, b uint8) {
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			inX := x < size || x >= buf.Width-size
			inY := y < size || y >= buf.Height-size
			if inX && inY {
				set(buf, x, y, r, g, b, 255)
			}
		}
	}
}
