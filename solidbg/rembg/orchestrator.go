package rembg

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"

	"github.com/chaos-io/solidbg/solidbg"
	"github.com/chaos-io/solidbg/util"
)

var (
	// ErrDecodeUnavailable 拿不到像素：加载失败或无法解码
	ErrDecodeUnavailable = errors.New("image pixels unavailable")
	// ErrDegenerateImage 宽或高为 0
	ErrDegenerateImage = solidbg.ErrDegenerateImage
	// ErrEncodeFailure 处理结果无法重新编码
	ErrEncodeFailure = errors.New("encode processed image")
	// errSkipped 未标记、已处理或正在处理
	errSkipped = errors.New("skipped")
)

type Options struct {
	// Workers 并行处理的行段数，<= 1 时串行
	Workers int
	// MaxSize 处理前把最长边缩到 MaxSize 以内，0 表示不缩放
	MaxSize int
	// Trim 处理后裁掉四周完全透明的边
	Trim          bool
	TrimThreshold uint8
}

func DefaultOptions() Options {
	return Options{Workers: runtime.GOMAXPROCS(0)}
}

// Orchestrator 对打了标记的图片执行一次去背景
//
//	任何一步失败都保留原图，不向调用方返回错误；失败原因只写到 Logger（Debug 级别）
//	同一张图最多成功处理一次
type Orchestrator struct {
	remover *SolidRemover
	encode  func(image.Image) ([]byte, error)
	Logger  *slog.Logger
}

func NewOrchestrator(opts Options) *Orchestrator {
	return &Orchestrator{
		remover: NewSolidRemover(opts),
		encode:  util.EncodePNGBytes,
	}
}

// Process 未加载完成时等待加载结束（只等一次），然后处理
func (o *Orchestrator) Process(ctx context.Context, img *Image) {
	err := o.process(ctx, img)
	if err == nil || errors.Is(err, errSkipped) {
		return
	}
	o.logger().Debug("solid background removal skipped, original kept",
		"image", img.ID, "source", img.Source, "err", err)
}

func (o *Orchestrator) process(ctx context.Context, img *Image) error {
	if img == nil || !img.OptIn || !img.marker.Is(statePending) {
		return errSkipped
	}

	// 已经加载完成时不看 ctx
	select {
	case <-img.Ready():
	default:
		select {
		case <-img.Ready():
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrDecodeUnavailable, ctx.Err())
		}
	}

	// 抢占处理权，并发的第二次调用在这里失败
	if err := img.marker.Event(eventBegin); err != nil {
		return errSkipped
	}

	content, format, bg, err := o.run(img)
	if err != nil {
		if abortErr := img.marker.Event(eventAbort); abortErr != nil {
			o.logger().Warn("abort transition failed", "image", img.ID, "err", abortErr)
		}
		return err
	}

	img.replace(content, format, bg)
	if err := img.marker.Event(eventFinish); err != nil {
		return fmt.Errorf("finish transition: %w", err)
	}

	o.logger().Debug("solid background removed",
		"image", img.ID, "background", bg.Hex(), "bytes", len(content))
	return nil
}

func (o *Orchestrator) run(img *Image) ([]byte, string, solidbg.Color, error) {
	if err := img.LoadErr(); err != nil {
		return nil, "", solidbg.Color{}, fmt.Errorf("%w: %w", ErrDecodeUnavailable, err)
	}

	data, _ := img.Content()
	if len(data) == 0 {
		return nil, "", solidbg.Color{}, fmt.Errorf("%w: empty content", ErrDecodeUnavailable)
	}

	src, _, err := util.DecodeImage(data)
	if err != nil {
		return nil, "", solidbg.Color{}, fmt.Errorf("%w: %w", ErrDecodeUnavailable, err)
	}

	out, bg, err := o.remover.remove(src, o.logger())
	if err != nil {
		return nil, "", solidbg.Color{}, err
	}

	encoded, err := o.encode(out)
	if err != nil {
		return nil, "", solidbg.Color{}, fmt.Errorf("%w: %w", ErrEncodeFailure, err)
	}
	return encoded, "png", bg, nil
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
