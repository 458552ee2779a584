package util

import (
	"context"
	"fmt"
	"image"
	"os"
	"time"

	nhttp "github.com/chaos-io/solidbg/util/http"
)

// OpenImage 读取本地图片并解码，和 DecodeImage 一样按 EXIF 方向旋转
func OpenImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	img, _, err := DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	return img, nil
}

// DownloadImage 下载图片，返回原始字节
func DownloadImage(ctx context.Context, cli nhttp.IClient, url string, timeout time.Duration) ([]byte, error) {
	var data []byte
	err := cli.DoHTTPRequest(ctx, &nhttp.RequestParam{
		RequestURI: url,
		Method:     "GET",
		Header:     map[string]string{"Accept": "image/*"},
		Response:   &data,
		Timeout:    timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	return data, nil
}
