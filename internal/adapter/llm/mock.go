package llm

import (
	"strings"
	"sync"
)

// MockLLM answers offline by quoting the first line of context in the prompt.
// When the prompt carries no context it returns the not-found sentinel.
type MockLLM struct {
	Sentinel string

	mu      sync.Mutex
	prompts []string
}

func NewMockLLM(sentinel string) *MockLLM {
	return &MockLLM{Sentinel: sentinel}
}

func (m *MockLLM) Generate(prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	ctx := between(prompt, "Context:\n", "\n\nQuestion:")
	for _, line := range strings.Split(ctx, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && line != "---" {
			return line, nil
		}
	}
	return m.Sentinel, nil
}

// Prompts returns every prompt received so far.
func (m *MockLLM) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

func (m *MockLLM) ModelName() string {
	return "mock"
}

func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	s = s[i+len(start):]
	if j := strings.LastIndex(s, end); j >= 0 {
		s = s[:j]
	}
	return s
}
