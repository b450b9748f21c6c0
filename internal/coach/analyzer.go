package coach

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spigell/career-coach/internal/ai"
	"github.com/spigell/career-coach/internal/logger"
	"go.uber.org/zap"
)

const defaultMaxLogLength = 200

// ErrMissingUpload is returned when the file or its name is empty.
var ErrMissingUpload = errors.New("missing file or fileName")

// TextExtractor pulls plain text out of an uploaded document.
type TextExtractor interface {
	Text(data []byte) (string, error)
}

// ResumeUpload is a base64 encoded resume and its original file name.
type ResumeUpload struct {
	FileName string
	Content  string
}

// Analyzer scores resumes with the configured generator.
type Analyzer struct {
	generator ai.Generator
	extractor TextExtractor
	logger    *zap.Logger
	maxLogLen int
}

// NewAnalyzer returns an Analyzer. A nil extractor always uses the
// placeholder resume description.
func NewAnalyzer(generator ai.Generator, extractor TextExtractor, log *zap.Logger, maxLogLength int) *Analyzer {
	if generator == nil {
		generator = ai.Unavailable{}
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Analyzer{
		generator: generator,
		extractor: extractor,
		logger:    logger.WithFields(log, zap.String(logger.FieldOperation, "analysis")),
		maxLogLen: maxLogLength,
	}
}

// Analyze scores the upload. Any generation or decode failure yields the
// fallback analysis; only a missing upload is reported as an error.
func (a *Analyzer) Analyze(ctx context.Context, upload ResumeUpload) (Outcome[AnalysisResult], error) {
	fileName := strings.TrimSpace(upload.FileName)
	if fileName == "" || strings.TrimSpace(upload.Content) == "" {
		return Outcome[AnalysisResult]{}, ErrMissingUpload
	}

	prompt := BuildAnalysisPrompt(fileName, a.resumeText(fileName, upload.Content))
	raw, err := a.generate(ctx, prompt, zap.String("file_name", fileName))

	outcome := CoerceAnalysis(raw, err)
	if outcome.Fallback {
		a.logger.Warn("serving fallback analysis", zap.String("file_name", fileName), zap.Error(outcome.Reason))
	}
	return outcome, nil
}

func (a *Analyzer) resumeText(fileName, encoded string) string {
	placeholder := PlaceholderResumeText(fileName, len(encoded))
	if a.extractor == nil {
		return placeholder
	}

	data, err := decodeUpload(encoded)
	if err != nil {
		a.logger.Debug("upload is not valid base64", zap.String("file_name", fileName), zap.Error(err))
		return placeholder
	}

	text, err := a.extractor.Text(data)
	if err != nil || strings.TrimSpace(text) == "" {
		a.logger.Debug("no text extracted from upload", zap.String("file_name", fileName), zap.Error(err))
		return placeholder
	}
	return text
}

func (a *Analyzer) generate(ctx context.Context, prompt string, fields ...zap.Field) (string, error) {
	return generateLogged(ctx, a.generator, a.logger, a.maxLogLen, prompt, fields...)
}

func generateLogged(ctx context.Context, generator ai.Generator, log *zap.Logger, maxLogLen int, prompt string, fields ...zap.Field) (string, error) {
	log.Debug("generate content request", append(fields,
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.Truncate(prompt, maxLogLen)),
	)...)

	raw, err := generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate with %q: %w", generator.Model(), err)
	}

	log.Debug("generate content response", append(fields,
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.Truncate(raw, maxLogLen)),
	)...)
	return raw, nil
}

// decodeUpload accepts standard base64, optionally prefixed with a data URL
// header.
func decodeUpload(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		if idx := strings.Index(encoded, ","); idx != -1 {
			encoded = encoded[idx+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}
