package rembg

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chaos-io/solidbg/util"
	nhttp "github.com/chaos-io/solidbg/util/http"
)

const DefaultFetchTimeout = 30 * time.Second

// Loader 根据来源取回图片的原始字节
type Loader interface {
	Load(ctx context.Context, source string) ([]byte, error)
}

type LoaderFunc func(ctx context.Context, source string) ([]byte, error)

func (f LoaderFunc) Load(ctx context.Context, source string) ([]byte, error) {
	return f(ctx, source)
}

// SourceLoader http(s) 地址走 HTTP 下载，data: 地址直接解码，其余当作本地文件
type SourceLoader struct {
	cli     nhttp.IClient
	timeout time.Duration
}

func NewSourceLoader(cli nhttp.IClient, timeout time.Duration) *SourceLoader {
	if cli == nil {
		cli = nhttp.NewHTTPClient()
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &SourceLoader{cli: cli, timeout: timeout}
}

func (l *SourceLoader) Load(ctx context.Context, source string) ([]byte, error) {
	switch {
	case source == "":
		return nil, fmt.Errorf("empty image source")
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return util.DownloadImage(ctx, l.cli, source, l.timeout)
	case util.IsDataURL(source):
		_, data, err := util.DecodeDataURL(source)
		return data, err
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read image file: %w", err)
		}
		return data, nil
	}
}
