// Package server exposes the editor over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cache"
	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/chazu/helix/pkg/apiconfig"
	"github.com/chazu/helix/pkg/building"
	"github.com/chazu/helix/pkg/editor"
	"github.com/chazu/helix/pkg/gallery"
	"github.com/chazu/helix/pkg/viewport"
)

// presetTTL is how long static preset listings are cached.
const presetTTL = time.Hour

// Server routes HTTP requests to an Editor.
type Server struct {
	editor  *editor.Editor
	metrics *Metrics
	router  *gin.Engine
}

// New builds the router. Metrics are registered with reg and served from it
// on /metrics.
func New(ed *editor.Editor, reg *prometheus.Registry) (*Server, error) {
	m := NewMetrics()
	if err := m.Register(reg); err != nil {
		return nil, fmt.Errorf("server: register metrics: %w", err)
	}
	ed.Observe(m.ObserveScene)
	if s := ed.Scene(); s != nil {
		m.ObserveScene(s)
	}

	s := &Server{editor: ed, metrics: m, router: gin.New()}
	s.routes(reg)
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}
	errc := make(chan error, 1)
	go func() {
		logrus.Infof("server: listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

func (s *Server) routes(reg *prometheus.Registry) {
	r := s.router
	r.Use(gin.Recovery(), s.logRequests())

	store := persistence.NewInMemoryStore(time.Minute)

	api := r.Group("/api")
	api.GET("/config", s.getConfig)
	api.PUT("/config", s.putConfig)
	api.PATCH("/config", s.patchConfig)
	api.GET("/config/ranges", cache.CachePage(store, presetTTL, s.getRanges))
	api.GET("/stats", s.getStats)
	api.GET("/scene", s.getScene)

	api.GET("/camera", s.getCamera)
	api.GET("/camera/presets", cache.CachePage(store, presetTTL, s.getCameraPresets))
	api.POST("/camera/:preset", s.applyCameraPreset)

	api.POST("/screenshots", s.capture)
	api.GET("/gallery", s.listImages)
	api.GET("/gallery/:id", s.getImage)
	api.DELETE("/gallery/:id", s.deleteImage)
	api.GET("/gallery/:id/download", s.downloadImage)

	api.GET("/apis", s.listAPIs)
	api.GET("/apis/presets", cache.CachePage(store, presetTTL, s.getAPIPresets))
	api.POST("/apis", s.addAPI)
	api.PUT("/apis/:id", s.updateAPI)
	api.DELETE("/apis/:id", s.deleteAPI)
	api.POST("/apis/:id/enabled", s.setAPIEnabled)
	api.POST("/process", s.process)

	api.POST("/script", s.runScript)
	api.GET("/export.stl", s.exportSTL)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		s.metrics.httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
		logrus.Debugf("%s %s -> %d in %v", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
	}
}

// fail writes err as a JSON error body.
func fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		logrus.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

type configResponse struct {
	Config building.Config `json:"config"`
	Stats  building.Stats  `json:"stats"`
}

func (s *Server) getConfig(c *gin.Context) {
	cfg := s.editor.Config()
	c.JSON(http.StatusOK, configResponse{Config: cfg, Stats: cfg.Stats()})
}

func (s *Server) putConfig(c *gin.Context) {
	var cfg building.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	applied, _, err := s.editor.SetConfig(cfg)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, configResponse{Config: applied, Stats: applied.Stats()})
}

type patchRequest struct {
	Field string `json:"field" binding:"required"`
	Value any    `json:"value"`
}

func (s *Server) patchConfig(c *gin.Context) {
	var req patchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	cfg, _, err := s.editor.Update(req.Field, req.Value)
	switch {
	case errors.Is(err, building.ErrUnknownField), errors.Is(err, building.ErrInvalidValue),
		errors.Is(err, building.ErrInvalidColor):
		fail(c, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, configResponse{Config: cfg, Stats: cfg.Stats()})
}

func (s *Server) getRanges(c *gin.Context) {
	c.JSON(http.StatusOK, building.Ranges)
}

func (s *Server) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.editor.Stats())
}

func (s *Server) getScene(c *gin.Context) {
	sum, err := s.editor.Summary()
	if err != nil {
		fail(c, http.StatusServiceUnavailable, err)
		return
	}
	if c.Query("meshes") != "true" {
		c.JSON(http.StatusOK, sum)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": sum, "meshes": s.editor.Scene().Meshes})
}

// ---------------------------------------------------------------------------
// Camera
// ---------------------------------------------------------------------------

func (s *Server) getCamera(c *gin.Context) {
	c.JSON(http.StatusOK, s.editor.CameraState())
}

func (s *Server) getCameraPresets(c *gin.Context) {
	c.JSON(http.StatusOK, s.editor.Presets())
}

func (s *Server) applyCameraPreset(c *gin.Context) {
	c.JSON(http.StatusOK, s.editor.ApplyCameraPreset(c.Param("preset")))
}

// ---------------------------------------------------------------------------
// Screenshots and gallery
// ---------------------------------------------------------------------------

func (s *Server) capture(c *gin.Context) {
	img, err := s.editor.Capture(c.Request.Context())
	s.metrics.ObserveCapture(err)
	switch {
	case errors.Is(err, viewport.ErrCaptureInProgress):
		fail(c, http.StatusConflict, err)
		return
	case errors.Is(err, viewport.ErrCaptureUnavailable):
		fail(c, http.StatusServiceUnavailable, err)
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, img)
}

func (s *Server) listImages(c *gin.Context) {
	imgs, err := s.editor.Images(c.Request.Context(), c.Query("q"))
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	if imgs == nil {
		imgs = []gallery.SavedImage{}
	}
	c.JSON(http.StatusOK, imgs)
}

func (s *Server) image(c *gin.Context) (gallery.SavedImage, bool) {
	img, err := s.editor.Image(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, gallery.ErrNotFound):
		fail(c, http.StatusNotFound, err)
		return img, false
	case err != nil:
		fail(c, http.StatusInternalServerError, err)
		return img, false
	}
	return img, true
}

func (s *Server) getImage(c *gin.Context) {
	if img, ok := s.image(c); ok {
		c.JSON(http.StatusOK, img)
	}
}

func (s *Server) deleteImage(c *gin.Context) {
	err := s.editor.DeleteImage(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, gallery.ErrNotFound):
		fail(c, http.StatusNotFound, err)
	case err != nil:
		fail(c, http.StatusInternalServerError, err)
	default:
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) downloadImage(c *gin.Context) {
	img, ok := s.image(c)
	if !ok {
		return
	}
	raw, err := gallery.DecodePNG(img)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", gallery.Filename(img)))
	c.Data(http.StatusOK, "image/png", raw)
}

// ---------------------------------------------------------------------------
// External APIs
// ---------------------------------------------------------------------------

func (s *Server) listAPIs(c *gin.Context) {
	c.JSON(http.StatusOK, s.editor.APIs().List())
}

func (s *Server) getAPIPresets(c *gin.Context) {
	c.JSON(http.StatusOK, apiconfig.Presets())
}

func (s *Server) addAPI(c *gin.Context) {
	var cfg apiconfig.APIConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	added, err := s.editor.APIs().Add(cfg)
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, err)
		return
	}
	c.JSON(http.StatusCreated, added)
}

func apiStatus(err error) int {
	switch {
	case errors.Is(err, apiconfig.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apiconfig.ErrInvalid):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) updateAPI(c *gin.Context) {
	var cfg apiconfig.APIConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	cfg.ID = c.Param("id")
	updated, err := s.editor.APIs().Update(cfg)
	if err != nil {
		fail(c, apiStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteAPI(c *gin.Context) {
	if err := s.editor.APIs().Delete(c.Param("id")); err != nil {
		fail(c, apiStatus(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) setAPIEnabled(c *gin.Context) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	cfg, err := s.editor.APIs().SetEnabled(c.Param("id"), req.Enabled)
	if err != nil {
		fail(c, apiStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) process(c *gin.Context) {
	var req apiconfig.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, s.editor.Process(c.Request.Context(), req))
}

// ---------------------------------------------------------------------------
// Scripts and export
// ---------------------------------------------------------------------------

func (s *Server) runScript(c *gin.Context) {
	var source string
	if c.ContentType() == "application/json" {
		var req struct {
			Source string `json:"source"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err)
			return
		}
		source = req.Source
	} else {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			fail(c, http.StatusBadRequest, err)
			return
		}
		source = string(body)
	}

	res, err := s.editor.RunScript(source)
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, err)
		return
	}
	status := http.StatusOK
	if len(res.Errors) > 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, res)
}

func (s *Server) exportSTL(c *gin.Context) {
	c.Header("Content-Type", "model/stl")
	c.Header("Content-Disposition", `attachment; filename="helix-tower.stl"`)
	if _, err := s.editor.ExportSTL(c.Writer); err != nil {
		fail(c, http.StatusInternalServerError, err)
	}
}
