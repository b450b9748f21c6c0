package client

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/spigell/career-coach/internal/coach"
	"github.com/spigell/career-coach/internal/extract"
	"go.uber.org/zap"
)

var (
	// ErrInvalidFileType is returned when a non-PDF file is selected.
	ErrInvalidFileType = errors.New("invalid file type: only PDF files are accepted")
	// ErrNoFile is returned when Analyze is called before a file is selected.
	ErrNoFile = errors.New("no resume file selected")
)

// ResumeAPI is the server call behind ResumeAnalyzer.
type ResumeAPI interface {
	AnalyzeResume(ctx context.Context, fileName string, data []byte) (coach.AnalysisResult, error)
}

// ResumeFile is a file picked by the user.
type ResumeFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Analysis is the result shown to the user.
type Analysis struct {
	coach.AnalysisResult
	Fallback bool
}

// OverallLabel is the label shown next to the overall score.
func (a Analysis) OverallLabel() string {
	return coach.ScoreLabel(a.OverallScore)
}

// ResumeAnalyzer drives the upload and analysis of a resume.
type ResumeAnalyzer struct {
	api      ResumeAPI
	notifier Notifier
	session  *Session
	logger   *zap.Logger

	mu       sync.Mutex
	selected *ResumeFile
}

func NewResumeAnalyzer(api ResumeAPI, notifier Notifier, logger *zap.Logger) *ResumeAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResumeAnalyzer{
		api:      api,
		notifier: orDiscard(notifier),
		session:  NewSession(),
		logger:   logger,
	}
}

// Session exposes the action state, e.g. to disable controls while pending.
func (a *ResumeAnalyzer) Session() *Session {
	return a.session
}

// Select accepts a PDF upload. Other types are rejected locally and nothing
// is sent to the server.
func (a *ResumeAnalyzer) Select(file ResumeFile) error {
	mimeType := strings.ToLower(strings.TrimSpace(file.MIMEType))
	if mimeType == "" {
		mimeType = extract.DetectMIME(file.Name, file.Data)
	}
	if mimeType != extract.MIMEPDF {
		a.notifier.Notify(Notification{
			Title:       "Invalid File Type",
			Description: "Please upload a PDF file",
			Variant:     VariantDestructive,
		})
		return ErrInvalidFileType
	}

	a.mu.Lock()
	a.selected = &file
	a.mu.Unlock()

	a.notifier.Notify(Notification{
		Title:       "File Uploaded",
		Description: file.Name + " ready for analysis",
		Variant:     VariantDefault,
	})
	return nil
}

// Analyze sends the selected file. Any failure yields the fallback analysis
// and a non-alarming notification.
func (a *ResumeAnalyzer) Analyze(ctx context.Context) (Analysis, error) {
	a.mu.Lock()
	file := a.selected
	a.mu.Unlock()
	if file == nil {
		return Analysis{}, ErrNoFile
	}

	var out Analysis
	err := a.session.Do(ctx, func(ctx context.Context) error {
		result, err := a.api.AnalyzeResume(ctx, file.Name, file.Data)
		if err != nil {
			a.logger.Warn("resume analysis failed, using fallback", zap.String("file_name", file.Name), zap.Error(err))
			out = Analysis{AnalysisResult: coach.FallbackAnalysis(), Fallback: true}
			a.notifier.Notify(Notification{
				Title:       "Analysis Complete",
				Description: "Analysis completed with backup system",
				Variant:     VariantDefault,
			})
			return err
		}

		out = Analysis{AnalysisResult: result}
		a.notifier.Notify(Notification{
			Title:       "Analysis Complete",
			Description: "Your resume has been analyzed successfully",
			Variant:     VariantDefault,
		})
		return nil
	})
	if errors.Is(err, ErrBusy) || errors.Is(err, ErrInvalidTransition) {
		return Analysis{}, err
	}
	return out, nil
}
