package http

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go.ngs.io/wave-boundary/internal/domain"
	"go.ngs.io/wave-boundary/internal/grid"
	"go.ngs.io/wave-boundary/internal/usecase"
)

// Handler handles HTTP requests for wave boundaries.
type Handler struct {
	boundary  *usecase.Boundary
	outputDir string
	log       logrus.FieldLogger
}

// NewHandler creates a new HTTP handler. Every request writes its files to
// a fresh run directory under outputDir.
func NewHandler(boundary *usecase.Boundary, outputDir string, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		boundary:  boundary,
		outputDir: outputDir,
		log:       log,
	}
}

// BoundaryRequest is the body of POST /v1/boundary.
type BoundaryRequest struct {
	Grid  grid.RegularGrid `json:"grid"`
	Start *time.Time       `json:"start"`
	End   *time.Time       `json:"end"`
	Mode  string           `json:"mode"`
}

// BoundaryResponse describes the files written for a request.
type BoundaryResponse struct {
	RunID    string            `json:"run_id"`
	Namelist map[string]string `json:"namelist"`
	Files    []string          `json:"files"`
}

// CreateBoundary handles POST /v1/boundary.
func (h *Handler) CreateBoundary(c *gin.Context) {
	var req BoundaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if err := req.Grid.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid grid: %v", err)})
		return
	}

	var tr *domain.TimeRange
	switch {
	case req.Start != nil && req.End != nil:
		tr = &domain.TimeRange{Start: req.Start.UTC(), End: req.End.UTC()}
	case req.Start != nil || req.End != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end must be given together"})
		return
	}

	b := h.boundary
	if req.Mode != "" {
		mode, err := usecase.ParseMode(req.Mode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if b, err = b.WithMode(mode); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	runID := uuid.NewString()
	dir := filepath.Join(h.outputDir, runID)
	namelist, err := b.Get(dir, req.Grid, tr)
	if err != nil {
		h.log.WithError(err).WithField("run_id", runID).Warn("boundary request failed")
		_ = os.RemoveAll(dir)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	files, err := listFiles(dir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.log.WithFields(logrus.Fields{
		"run_id": runID,
		"files":  len(files),
	}).Info("boundary created")

	c.JSON(http.StatusOK, BoundaryResponse{
		RunID:    runID,
		Namelist: namelist,
		Files:    files,
	})
}

// GetBoundaryFile handles GET /v1/boundary/:run/:file.
func (h *Handler) GetBoundaryFile(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("run"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}
	name := c.Param("file")
	if name != filepath.Base(name) || name == "." || name == ".." {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file name"})
		return
	}
	path := filepath.Join(h.outputDir, runID.String(), name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("file %s not found for run %s", name, runID)})
		return
	}
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.File(path)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrConfig), errors.Is(err, domain.ErrRange), errors.Is(err, domain.ErrDataQuality):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list output: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
