package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/chaos-io/solidbg/solidbg/rembg"
	"github.com/chaos-io/solidbg/util"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func logoPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			c := color.NRGBA{R: 250, G: 250, B: 250, A: 255}
			if x >= 10 && x < 30 && y >= 10 && y < 30 {
				c = color.NRGBA{R: 10, G: 60, B: 160, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	data, err := util.EncodePNGBytes(img)
	require.NoError(t, err)
	return data
}

func newTestServer(t *testing.T, loader rembg.Loader) *Server {
	t.Helper()
	if loader == nil {
		loader = rembg.NewSourceLoader(nil, time.Second)
	}
	return New(context.Background(), NewRegistry(), rembg.NewOrchestrator(rembg.Options{}), loader)
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func upload(t *testing.T, s *Server, data []byte, optIn string) imageMeta {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "logo.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	if optIn != "" {
		require.NoError(t, writer.WriteField("remove_solid_bg", optIn))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := do(t, s, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var m imageMeta
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func decodeMeta(t *testing.T, w *httptest.ResponseRecorder) imageMeta {
	t.Helper()
	var m imageMeta
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	w := do(t, newTestServer(t, nil), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","images":0}`, w.Body.String())
}

func TestServer_UploadAndRemove(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	original := logoPNG(t)
	m := upload(t, s, original, "true")
	assert.True(t, m.OptIn)
	assert.True(t, m.Loaded)
	assert.False(t, m.Processed)
	assert.Equal(t, "pending", m.State)
	assert.Equal(t, "logo.png", m.Source)

	w := do(t, s, httptest.NewRequest(http.MethodPost, "/images/"+m.ID+"/remove-background", nil))
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeMeta(t, w)
	assert.True(t, got.Processed)
	assert.Equal(t, "processed", got.State)
	assert.Equal(t, "#fafafa", got.Background)

	w = do(t, s, httptest.NewRequest(http.MethodGet, "/images/"+m.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	img, _, err := util.DecodeImage(w.Body.Bytes())
	require.NoError(t, err)
	out := imaging.Clone(img)
	assert.Equal(t, uint8(0), out.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(255), out.NRGBAAt(20, 20).A)

	// 第二次调用不改变结果
	before := w.Body.Bytes()
	w = do(t, s, httptest.NewRequest(http.MethodPost, "/images/"+m.ID+"/remove-background", nil))
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, s, httptest.NewRequest(http.MethodGet, "/images/"+m.ID, nil))
	assert.Equal(t, before, w.Body.Bytes())
}

func TestServer_NotOptedIn(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	original := logoPNG(t)
	m := upload(t, s, original, "")
	assert.False(t, m.OptIn)

	w := do(t, s, httptest.NewRequest(http.MethodPost, "/images/"+m.ID+"/remove-background", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeMeta(t, w).Processed)

	w = do(t, s, httptest.NewRequest(http.MethodGet, "/images/"+m.ID, nil))
	assert.Equal(t, original, w.Body.Bytes())
}

func TestServer_CorruptUploadKeepsOriginal(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	m := upload(t, s, []byte("not an image"), "true")

	w := do(t, s, httptest.NewRequest(http.MethodPost, "/images/"+m.ID+"/remove-background", nil))
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeMeta(t, w)
	assert.False(t, got.Processed)
	assert.Equal(t, "pending", got.State)

	w = do(t, s, httptest.NewRequest(http.MethodGet, "/images/"+m.ID, nil))
	assert.Equal(t, "not an image", w.Body.String())
}

func TestServer_RemoteSource(t *testing.T) {
	t.Parallel()

	data := logoPNG(t)
	release := make(chan struct{})
	loader := rembg.LoaderFunc(func(ctx context.Context, source string) ([]byte, error) {
		<-release
		return data, nil
	})
	s := newTestServer(t, loader)

	req := httptest.NewRequest(http.MethodPost, "/images",
		strings.NewReader(`{"source": "https://example.com/logo.png", "remove_solid_bg": true}`))
	req.Header.Set("Content-Type", "application/json")
	w := do(t, s, req)
	require.Equal(t, http.StatusCreated, w.Code)
	m := decodeMeta(t, w)
	assert.False(t, m.Loaded)

	w = do(t, s, httptest.NewRequest(http.MethodGet, "/images/"+m.ID, nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	close(release)
	w = do(t, s, httptest.NewRequest(http.MethodPost, "/images/"+m.ID+"/remove-background", nil))
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeMeta(t, w)
	assert.True(t, got.Loaded)
	assert.True(t, got.Processed)

	w = do(t, s, httptest.NewRequest(http.MethodGet, "/images/"+m.ID+"?format=dataurl", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "data:image/png;base64,"))
}

func TestServer_BadRequests(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/images", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, do(t, s, req).Code)

	assert.Equal(t, http.StatusNotFound, do(t, s, httptest.NewRequest(http.MethodGet, "/images/nope", nil)).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, httptest.NewRequest(http.MethodGet, "/images/nope/meta", nil)).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, httptest.NewRequest(http.MethodDelete, "/images/nope", nil)).Code)
}

func TestServer_Delete(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	m := upload(t, s, logoPNG(t), "true")

	assert.Equal(t, http.StatusNoContent, do(t, s, httptest.NewRequest(http.MethodDelete, "/images/"+m.ID, nil)).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, httptest.NewRequest(http.MethodGet, "/images/"+m.ID+"/meta", nil)).Code)
}
