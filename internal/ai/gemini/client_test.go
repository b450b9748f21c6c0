package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeModels struct {
	mu      sync.Mutex
	queue   []fakeResponse
	models  []string
	configs []*genai.GenerateContentConfig
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.models = append(f.models, model)
	f.configs = append(f.configs, config)
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	return res.resp, res.err
}

func (f *fakeModels) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.models)
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func stubSleep(t *testing.T) {
	t.Helper()
	original := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = original })
}

func TestGeneratorJoinsCandidateParts(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse(" {\"a\":", "", "1} "), nil)

	g := newGenerator(models, Options{Logger: zap.NewNop()})

	out, err := g.GenerateContent(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "{\"a\":\n1}" {
		t.Fatalf("unexpected output: %q", out)
	}
	if models.models[0] != defaultModel {
		t.Fatalf("expected default model, got %q", models.models[0])
	}
	if models.configs[0].ResponseMIMEType != jsonMIMEType {
		t.Fatalf("expected json mime type, got %q", models.configs[0].ResponseMIMEType)
	}
}

func TestGeneratorRejectsEmptyPrompt(t *testing.T) {
	models := &fakeModels{}
	g := newGenerator(models, Options{})

	if _, err := g.GenerateContent(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
	if models.calls() != 0 {
		t.Fatalf("expected no calls, got %d", models.calls())
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse("  "), nil)

	g := newGenerator(models, Options{})
	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestGeneratorBlockedPrompt(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(&genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	}, nil)

	g := newGenerator(models, Options{})
	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for blocked prompt")
	}
}

func TestGeneratorSingleAttemptByDefault(t *testing.T) {
	stubSleep(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"})

	g := newGenerator(models, Options{})
	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error")
	}
	if models.calls() != 1 {
		t.Fatalf("expected 1 call, got %d", models.calls())
	}
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	stubSleep(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	models.enqueue(textResponse("retry ok"), nil)

	g := newGenerator(models, Options{Model: "gemini-pro", MaxRetries: 2, Logger: zap.NewNop()})

	out, err := g.GenerateContent(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "retry ok" {
		t.Fatalf("unexpected output: %q", out)
	}
	if models.calls() != 2 {
		t.Fatalf("expected 2 calls, got %d", models.calls())
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	stubSleep(t)

	models := &fakeModels{}
	tempErr := &genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}
	for i := 0; i < 3; i++ {
		models.enqueue(nil, tempErr)
	}

	g := newGenerator(models, Options{MaxRetries: 3})
	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if models.calls() != 3 {
		t.Fatalf("expected 3 calls, got %d", models.calls())
	}
}

func TestGeneratorDoesNotRetryPermanentError(t *testing.T) {
	stubSleep(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	g := newGenerator(models, Options{MaxRetries: 3})
	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error")
	}
	if models.calls() != 1 {
		t.Fatalf("expected single call, got %d", models.calls())
	}
}

func TestGeneratorDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	})

	g := newGenerator(models, Options{MaxRetries: 3})
	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error when quota delay too long")
	}
	if models.calls() != 1 {
		t.Fatalf("expected single call, got %d", models.calls())
	}
}

func TestGeneratorStopsWaitingOnCancel(t *testing.T) {
	block := make(chan struct{})
	original := sleep
	sleep = func(time.Duration) { <-block }
	t.Cleanup(func() {
		close(block)
		sleep = original
	})

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusServiceUnavailable})
	models.enqueue(textResponse("late"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := newGenerator(models, Options{MaxRetries: 2})
	_, err := g.GenerateContent(ctx, "prompt")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if models.calls() != 1 {
		t.Fatalf("expected single call, got %d", models.calls())
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		message string
		want    time.Duration
		ok      bool
	}{
		{message: "retry after 60 seconds", want: 60 * time.Second, ok: true},
		{message: "Please retry in 2.5s.", want: 2500 * time.Millisecond, ok: true},
		{message: "internal error", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			t.Parallel()
			got, ok := parseRetryAfter(tt.message)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("parseRetryAfter(%q) = %v, %v; want %v, %v", tt.message, got, ok, tt.want, tt.ok)
			}
		})
	}
}
