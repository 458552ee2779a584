package rembg

import (
	"context"
	"sync"

	"github.com/chaos-io/solidbg/solidbg"
	"github.com/looplab/fsm"
)

const (
	statePending    = "pending"
	stateProcessing = "processing"
	stateProcessed  = "processed"

	eventBegin  = "begin"
	eventFinish = "finish"
	eventAbort  = "abort"
)

// Image 一张待处理的图片：来源、是否打了去背景标记、当前可见内容和处理状态
type Image struct {
	ID     string
	Source string
	OptIn  bool

	mu         sync.RWMutex
	content    []byte
	format     string
	background solidbg.Color

	loadOnce sync.Once
	ready    chan struct{}
	loadErr  error

	marker *fsm.FSM
}

// NewImage 创建尚未加载的图片，需要调用 Load 才会有内容
func NewImage(id, source string, optIn bool) *Image {
	return &Image{
		ID:     id,
		Source: source,
		OptIn:  optIn,
		ready:  make(chan struct{}),
		marker: newMarker(),
	}
}

// NewLoadedImage 内容已经在内存里的图片
func NewLoadedImage(id, source string, optIn bool, content []byte) *Image {
	img := NewImage(id, source, optIn)
	img.loadOnce.Do(func() {
		img.content = content
		close(img.ready)
	})
	return img
}

func newMarker() *fsm.FSM {
	return fsm.NewFSM(
		statePending,
		fsm.Events{
			{Name: eventBegin, Src: []string{statePending}, Dst: stateProcessing},
			{Name: eventFinish, Src: []string{stateProcessing}, Dst: stateProcessed},
			{Name: eventAbort, Src: []string{stateProcessing}, Dst: statePending},
		},
		fsm.Callbacks{},
	)
}

// Load 最多加载一次；加载在后台进行，结束后 Ready() 被关闭
func (img *Image) Load(ctx context.Context, loader Loader) {
	img.loadOnce.Do(func() {
		go func() {
			defer close(img.ready)

			data, err := loader.Load(ctx, img.Source)

			img.mu.Lock()
			defer img.mu.Unlock()
			img.content, img.loadErr = data, err
		}()
	})
}

// Ready 加载结束（无论成功失败）时关闭，只会关闭一次
func (img *Image) Ready() <-chan struct{} {
	return img.ready
}

// LoadErr 加载结束前总是 nil
func (img *Image) LoadErr() error {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.loadErr
}

// Content 当前可见内容和格式；格式在处理成功前为空
func (img *Image) Content() ([]byte, string) {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.content, img.format
}

func (img *Image) Processed() bool {
	return img.marker.Is(stateProcessed)
}

func (img *Image) State() string {
	return img.marker.Current()
}

// Background 处理成功后估计出的背景色
func (img *Image) Background() (solidbg.Color, bool) {
	if !img.Processed() {
		return solidbg.Color{}, false
	}
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.background, true
}

func (img *Image) replace(content []byte, format string, bg solidbg.Color) {
	img.mu.Lock()
	defer img.mu.Unlock()
	img.content = content
	img.format = format
	img.background = bg
}
