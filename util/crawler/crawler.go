package crawler

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	nhttp "github.com/chaos-io/solidbg/util/http"
)

// OptInAttr 带这个属性的 <img> 才会被去背景
const OptInAttr = "data-remove-solid-bg"

type ImageRef struct {
	Src   string
	Alt   string
	OptIn bool
}

var (
	imgTagRe = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	attrRe   = regexp.MustCompile(`(?s)([a-zA-Z_:][-a-zA-Z0-9_:.]*)(?:\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+)))?`)
)

// Fetch 下载页面
func Fetch(ctx context.Context, cli nhttp.IClient, pageURL string) ([]byte, error) {
	var body []byte
	err := cli.DoHTTPRequest(ctx, &nhttp.RequestParam{
		RequestURI: pageURL,
		Method:     "GET",
		Header:     map[string]string{"Accept": "text/html"},
		Response:   &body,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	return body, nil
}

// FindImages 找出页面里所有 <img>，src 按 base 补全为绝对地址
// 没有 src 或 src 无法解析的标签会被跳过
func FindImages(page []byte, base *url.URL) []ImageRef {
	var refs []ImageRef
	for _, tag := range imgTagRe.FindAll(page, -1) {
		attrs := parseAttrs(string(tag))

		src, ok := attrs["src"]
		if !ok || src == "" {
			continue
		}
		if base != nil && !strings.HasPrefix(strings.ToLower(src), "data:") {
			u, err := url.Parse(src)
			if err != nil {
				continue
			}
			src = base.ResolveReference(u).String()
		}

		optIn, has := attrs[OptInAttr]
		refs = append(refs, ImageRef{
			Src:   src,
			Alt:   attrs["alt"],
			OptIn: has && !strings.EqualFold(optIn, "false"),
		})
	}
	return refs
}

// OptedIn 只保留打了标记的图片
func OptedIn(refs []ImageRef) []ImageRef {
	var out []ImageRef
	for _, r := range refs {
		if r.OptIn {
			out = append(out, r)
		}
	}
	return out
}

func parseAttrs(tag string) map[string]string {
	// 去掉 "<img" 和结尾的 ">" 或 "/>"
	inner := strings.TrimSuffix(strings.TrimSuffix(tag[len("<img"):], ">"), "/")

	attrs := make(map[string]string)
	for _, m := range attrRe.FindAllStringSubmatch(inner, -1) {
		name := strings.ToLower(m[1])
		if _, dup := attrs[name]; dup {
			continue
		}
		attrs[name] = html.UnescapeString(m[2] + m[3] + m[4])
	}
	return attrs
}
