// Package server exposes the processing pipeline over HTTP: an upload
// endpoint, a health check and a minimal single-page shell.
package server

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/voicelayer-ai/suhbat/pkg/logging"
	"github.com/voicelayer-ai/suhbat/pkg/pipeline"
	"github.com/voicelayer-ai/suhbat/pkg/transcript"
)

//go:embed static
var staticFS embed.FS

// Accepted upload extensions, matching the formats the transcription
// providers handle.
var allowedExtensions = map[string]bool{
	".mp3": true,
	".wav": true,
	".m4a": true,
}

const maxUploadBytes = 100 << 20 // 100 MiB

// Runner executes one pipeline run. *pipeline.Processor satisfies it; tests
// substitute a stub.
type Runner interface {
	Process(ctx context.Context, audioPath string) (*pipeline.Result, error)
}

type Server struct {
	engine *gin.Engine
	runner Runner
}

type processResponse struct {
	RunID         string              `json:"run_id"`
	OriginalText  string              `json:"original_text"`
	LocalizedText string              `json:"localized_text"`
	Summary       pipeline.Summary    `json:"summary"`
	SummaryText   string              `json:"summary_text"`
	Artifacts     []pipeline.Artifact `json:"artifacts"`
}

func New(runner Runner) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.MaxMultipartMemory = 16 << 20

	s := &Server{engine: engine, runner: runner}

	static, err := fs.Sub(staticFS, "static")
	if err == nil {
		engine.StaticFileFS("/", "index.html", http.FS(static))
	}
	engine.GET("/healthz", s.handleHealth)
	engine.POST("/api/process", s.handleProcess)

	return s
}

// Handler exposes the router for tests and custom servers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleProcess(c *gin.Context) {
	log := logging.NewLogger(c.Request.Context())

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "audio file is too large"})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported audio format, expected mp3, wav or m4a"})
		return
	}

	tempFile, err := os.CreateTemp("", "suhbat-upload-*"+ext)
	if err != nil {
		log.Errorf("error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	tempPath := tempFile.Name()
	_ = tempFile.Close()
	// The uploaded copy never outlives the request, success or failure.
	defer func() {
		_ = os.Remove(tempPath)
	}()

	if err := c.SaveUploadedFile(fileHeader, tempPath); err != nil {
		log.Errorf("error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	result, err := s.runner.Process(c.Request.Context(), tempPath)
	if err != nil {
		log.Errorf("error: %v", err)
		c.JSON(statusForError(err), gin.H{"error": "processing failed"})
		return
	}

	c.JSON(http.StatusOK, processResponse{
		RunID:         result.RunID,
		OriginalText:  result.OriginalText,
		LocalizedText: result.LocalizedText,
		Summary:       result.Summary,
		SummaryText:   result.Summary.Render(),
		Artifacts:     result.Artifacts(),
	})
}

// The client always sees a generic failure message; the status code is the
// only stage distinction exposed.
func statusForError(err error) int {
	var transcriptionErr *pipeline.TranscriptionError
	var completionErr *pipeline.CompletionError
	var formattingErr *transcript.FormattingError

	switch {
	case errors.As(err, &transcriptionErr), errors.As(err, &completionErr):
		return http.StatusBadGateway
	case errors.As(err, &formattingErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
