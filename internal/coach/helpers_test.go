package coach

import (
	"context"
	"sync"
)

type fakeGenerator struct {
	mu      sync.Mutex
	output  string
	err     error
	prompts []string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.output, f.err
}

func (f *fakeGenerator) Model() string { return "fake-model" }

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeExtractor struct {
	text string
	err  error
	got  []byte
}

func (f *fakeExtractor) Text(data []byte) (string, error) {
	f.got = data
	return f.text, f.err
}
