package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chaos-io/solidbg/solidbg/rembg"
	"github.com/chaos-io/solidbg/util"
	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 32 << 20

type Server struct {
	reg    *Registry
	orch   *rembg.Orchestrator
	loader rembg.Loader
	// loadCtx 异步加载远程图片用的 ctx，不随单个请求结束
	loadCtx context.Context
	engine  *gin.Engine
}

func New(loadCtx context.Context, reg *Registry, orch *rembg.Orchestrator, loader rembg.Loader) *Server {
	s := &Server{
		reg:     reg,
		orch:    orch,
		loader:  loader,
		loadCtx: loadCtx,
		engine:  gin.New(),
	}
	s.engine.Use(gin.Logger(), gin.Recovery())
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "images": s.reg.Len()})
	})

	images := s.engine.Group("/images")
	images.POST("", s.createImage)
	images.GET("/:id", s.getContent)
	images.GET("/:id/meta", s.getMeta)
	images.POST("/:id/remove-background", s.removeBackground)
	images.DELETE("/:id", s.deleteImage)
}

// Run 阻塞直到 ctx 结束，然后优雅退出
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type createImageReq struct {
	Source        string `json:"source" binding:"required"`
	RemoveSolidBG bool   `json:"remove_solid_bg"`
}

type imageMeta struct {
	ID         string `json:"id"`
	Source     string `json:"source,omitempty"`
	OptIn      bool   `json:"remove_solid_bg"`
	State      string `json:"state"`
	Processed  bool   `json:"processed"`
	Loaded     bool   `json:"loaded"`
	LoadError  string `json:"load_error,omitempty"`
	Background string `json:"background,omitempty"`
	Bytes      int    `json:"bytes"`
}

func (s *Server) createImage(c *gin.Context) {
	var img *rembg.Image

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("form file image: %v", err)})
			return
		}
		if fh.Size > maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer func() {
			_ = f.Close()
		}()
		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		optIn, _ := strconv.ParseBool(c.PostForm("remove_solid_bg"))
		img = rembg.NewLoadedImage(s.reg.NewID(), fh.Filename, optIn, data)
	} else {
		var req createImageReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		img = rembg.NewImage(s.reg.NewID(), req.Source, req.RemoveSolidBG)
		img.Load(s.loadCtx, s.loader)
	}

	s.reg.Add(img)
	c.JSON(http.StatusCreated, meta(img))
}

func (s *Server) getContent(c *gin.Context) {
	img, ok := s.lookup(c)
	if !ok {
		return
	}

	select {
	case <-img.Ready():
	default:
		c.JSON(http.StatusConflict, gin.H{"error": "image is still loading"})
		return
	}
	if err := img.LoadErr(); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	data, _ := img.Content()
	ct := http.DetectContentType(data)
	if c.Query("format") == "dataurl" {
		c.String(http.StatusOK, util.EncodeDataURL(ct, data))
		return
	}
	c.Data(http.StatusOK, ct, data)
}

func (s *Server) getMeta(c *gin.Context) {
	img, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, meta(img))
}

// removeBackground 失败时原图保留，同样返回 200，processed 为 false
func (s *Server) removeBackground(c *gin.Context) {
	img, ok := s.lookup(c)
	if !ok {
		return
	}
	s.orch.Process(c.Request.Context(), img)
	c.JSON(http.StatusOK, meta(img))
}

func (s *Server) deleteImage(c *gin.Context) {
	if !s.reg.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) lookup(c *gin.Context) (*rembg.Image, bool) {
	img, ok := s.reg.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
	}
	return img, ok
}

func meta(img *rembg.Image) imageMeta {
	m := imageMeta{
		ID:        img.ID,
		OptIn:     img.OptIn,
		State:     img.State(),
		Processed: img.Processed(),
	}
	if !util.IsDataURL(img.Source) {
		m.Source = img.Source
	}

	select {
	case <-img.Ready():
		m.Loaded = true
		if err := img.LoadErr(); err != nil {
			m.LoadError = err.Error()
		}
	default:
	}

	data, _ := img.Content()
	m.Bytes = len(data)
	if bg, ok := img.Background(); ok {
		m.Background = bg.Hex()
	}
	return m
}
