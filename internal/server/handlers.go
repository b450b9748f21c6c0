package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spigell/career-coach/internal/coach"
	"go.uber.org/zap"
)

const (
	msgMissingUpload   = "Missing file or fileName"
	msgAnalyzeFailed   = "Failed to analyze resume"
	msgRoleRequired    = "role required"
	msgRoadmapFailed   = "Failed to generate roadmap"
	msgBodyTooLarge    = "Request body too large"
	msgInvalidBody     = "Invalid request body"
	fallbackHeader     = "X-Coach-Fallback"
	fallbackHeaderTrue = "true"
)

type analyzeRequest struct {
	File     string `json:"file" binding:"required"`
	FileName string `json:"fileName" binding:"required"`
}

type roadmapRequest struct {
	Role string `json:"role" binding:"required"`
}

type roadmapResponse struct {
	OK      bool           `json:"ok"`
	Roadmap *coach.Roadmap `json:"roadmap,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type handlers struct {
	analyzer        ResumeAnalyzer
	roadmaps        RoadmapGenerator
	roadmapFallback bool
	logger          *zap.Logger
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) analyzeResume(c *gin.Context) {
	setFailure(c, gin.H{"error": msgAnalyzeFailed})
	log := requestLogger(c, h.logger).With(zap.String("operation", "analysis"))

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if status, body, ok := tooLarge(err, gin.H{"error": msgBodyTooLarge}); ok {
			c.JSON(status, body)
			return
		}
		fields := invalidFields(err)
		log.Debug("invalid analyze request", zap.Strings("fields", fields), zap.Error(err))
		if fields == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingUpload})
		return
	}

	outcome, err := h.analyzer.Analyze(c.Request.Context(), coach.ResumeUpload{FileName: req.FileName, Content: req.File})
	if errors.Is(err, coach.ErrMissingUpload) {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingUpload})
		return
	}
	if err != nil || c.Request.Context().Err() != nil {
		log.Error("analyze resume", zap.Error(errors.Join(err, c.Request.Context().Err())))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgAnalyzeFailed})
		return
	}

	if outcome.Fallback {
		c.Header(fallbackHeader, fallbackHeaderTrue)
	}
	c.JSON(http.StatusOK, outcome.Value)
}

func (h *handlers) roadmap(c *gin.Context) {
	setFailure(c, gin.H{"ok": false, "error": msgRoadmapFailed})
	log := requestLogger(c, h.logger).With(zap.String("operation", "roadmap"))

	var req roadmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if status, body, ok := tooLarge(err, roadmapResponse{Error: msgBodyTooLarge}); ok {
			c.JSON(status, body)
			return
		}
		fields := invalidFields(err)
		log.Debug("invalid roadmap request", zap.Strings("fields", fields), zap.Error(err))
		if fields == nil {
			c.JSON(http.StatusBadRequest, roadmapResponse{Error: msgInvalidBody})
			return
		}
		c.JSON(http.StatusBadRequest, roadmapResponse{Error: msgRoleRequired})
		return
	}

	outcome, err := h.roadmaps.Generate(c.Request.Context(), req.Role)
	if errors.Is(err, coach.ErrRoleRequired) {
		c.JSON(http.StatusBadRequest, roadmapResponse{Error: msgRoleRequired})
		return
	}
	if err != nil {
		log.Error("generate roadmap", zap.Error(err))
		c.JSON(http.StatusInternalServerError, roadmapResponse{Error: msgRoadmapFailed})
		return
	}

	if outcome.Fallback {
		if !h.roadmapFallback {
			c.JSON(http.StatusInternalServerError, roadmapResponse{Error: msgRoadmapFailed})
			return
		}
		c.Header(fallbackHeader, fallbackHeaderTrue)
	}

	roadmap := outcome.Value
	c.JSON(http.StatusOK, roadmapResponse{OK: true, Roadmap: &roadmap})
}

// invalidFields lists the request fields rejected by the validator. It is nil
// when the body is not well-formed JSON of the expected shape.
func invalidFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()[:1])+fe.Field()[1:])
	}
	return fields
}

func tooLarge(err error, body any) (int, any, bool) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge, body, true
	}
	return 0, nil, false
}
