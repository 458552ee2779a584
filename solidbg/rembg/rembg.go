package rembg

import (
	"context"
	"image"
	"log/slog"

	"github.com/chaos-io/solidbg/solidbg"
)

type Remover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}

// SolidRemover 纯色背景去除，直接作用于内存中的图片，不修改输入
type SolidRemover struct {
	Options Options
}

var _ Remover = (*SolidRemover)(nil)

func NewSolidRemover(opts Options) *SolidRemover {
	return &SolidRemover{Options: opts}
}

func (s *SolidRemover) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, _, err := s.remove(img, slog.Default())
	return out, err
}

// remove 不检查 ctx，开始后总会处理完
func (s *SolidRemover) remove(img image.Image, logger *slog.Logger) (image.Image, solidbg.Color, error) {
	buf, err := solidbg.FromImage(solidbg.ResizeWithinMax(img, s.Options.MaxSize))
	if err != nil {
		return nil, solidbg.Color{}, err
	}
	if solidbg.HasTransparency(buf) {
		logger.Debug("source already has transparent pixels", "width", buf.Width, "height", buf.Height)
	}

	bg, err := solidbg.Remove(buf, solidbg.Options{Workers: s.Options.Workers})
	if err != nil {
		return nil, solidbg.Color{}, err
	}

	out := buf.NRGBA()
	if s.Options.Trim {
		// 全部透明时保留未裁剪的结果
		if trimmed, err := solidbg.Trim(out, s.Options.TrimThreshold); err == nil {
			out = trimmed
		}
	}
	return out, bg, nil
}
