// Package server is the web front end: a prompt form that renders the style
// catalog and a small JSON API around it.
package server

import (
	"context"
	_ "embed"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/Sayannath2003/local-text-gif-generator/internal/engine"
	"github.com/Sayannath2003/local-text-gif-generator/internal/storage"
)

//go:embed templates/index.html
var indexHTML string

const qrSize = 256

// StyleRenderer renders the catalog for a prompt. *engine.StyleMatrix
// satisfies it.
type StyleRenderer interface {
	Run(ctx context.Context, prompt string) ([]engine.StyleDescriptor, error)
}

type Server struct {
	renderer  StyleRenderer
	outputDir string
	linker    storage.Linker
	logger    *slog.Logger

	// One batch already uses every core; concurrent renders only queue up.
	mu sync.Mutex
}

// New builds a server. linker resolves remote artifact locations (S3) into
// browser URLs and may be nil when artifacts are stored in outputDir.
func New(renderer StyleRenderer, outputDir string, linker storage.Linker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{renderer: renderer, outputDir: outputDir, linker: linker, logger: logger}
}

// StyleView is a descriptor as the page and the API expose it.
type StyleView struct {
	Index      int    `json:"index"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	Path       string `json:"path"`
	Background string `json:"background"`
	Motion     string `json:"motion"`
	QR         string `json:"qr,omitempty"`
}

type stylesRequest struct {
	Prompt string `json:"prompt" form:"prompt"`
}

type pageData struct {
	Prompt string
	Styles []StyleView
	Error  string
}

// Router constructs a Gin engine with registered routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(template.Must(template.New("index.html").Parse(indexHTML)))

	r.GET("/", s.handleIndex)
	r.POST("/", s.handleGenerate)
	r.Static("/artifacts", s.outputDir)

	api := r.Group("/api")
	api.GET("/health", handleHealth)
	api.POST("/styles", s.handleStyles)
	api.GET("/qr", handleQR)
	return r
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", pageData{})
}

func (s *Server) handleGenerate(c *gin.Context) {
	prompt := c.PostForm("prompt")
	styles, err := s.render(c, prompt)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "index.html", pageData{Prompt: prompt, Error: err.Error()})
		return
	}
	c.HTML(http.StatusOK, "index.html", pageData{Prompt: prompt, Styles: styles})
}

func (s *Server) handleStyles(c *gin.Context) {
	var req stylesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	styles, err := s.render(c, req.Prompt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if styles == nil {
		styles = []StyleView{}
	}
	c.JSON(http.StatusOK, gin.H{"styles": styles})
}

func (s *Server) render(c *gin.Context, prompt string) ([]StyleView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	descs, err := s.renderer.Run(c.Request.Context(), prompt)
	if err != nil {
		s.logger.Error("render failed", "prompt", prompt, "err", err)
		return nil, err
	}
	s.logger.Info("render done", "prompt", prompt, "styles", len(descs))

	views := make([]StyleView, 0, len(descs))
	for _, d := range descs {
		u := s.artifactURL(c.Request.Context(), d.Path)
		views = append(views, StyleView{
			Index:      d.Index,
			Name:       d.Name,
			URL:        u,
			Path:       d.Path,
			Background: d.Background,
			Motion:     d.Motion,
			QR:         "/api/qr?u=" + url.QueryEscape(absoluteURL(c.Request, u)),
		})
	}
	return views, nil
}

// handleQR returns a PNG QR code for the u query parameter.
func handleQR(c *gin.Context) {
	u := c.Query("u")
	if u == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing u parameter"})
		return
	}
	png, err := qrcode.Encode(u, qrcode.Medium, qrSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// artifactURL maps a local artifact path to its /artifacts URL and a remote
// location to the linker's URL. Without a linker, or when linking fails,
// the location is returned unchanged.
func (s *Server) artifactURL(ctx context.Context, path string) string {
	if !strings.Contains(path, "://") {
		return "/artifacts/" + filepath.Base(path)
	}
	if s.linker == nil {
		return path
	}
	u, err := s.linker.URL(ctx, path)
	if err != nil {
		s.logger.Warn("artifact link failed", "location", path, "err", err)
		return path
	}
	return u
}

func absoluteURL(r *http.Request, u string) string {
	if !strings.HasPrefix(u, "/") {
		return u
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + u
}
