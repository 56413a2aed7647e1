package app

import (
	"context"
	"fmt"
	"strings"
)

// MockClient answers queries offline with canned responses. It lets the full
// submit/await/reconcile path run without the answering service, both in
// tests and behind the --mock flag.
type MockClient struct {
	Calls int
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ask never fails. The canned answer varies a little with the query so the
// transcript looks plausible during demos.
func (c *MockClient) Ask(_ context.Context, query string, history []chatMessage) (*chatAnswer, error) {
	c.Calls++

	answer := &chatAnswer{
		Answer:  c.cannedAnswer(query),
		Sources: cannedSources(query),
	}
	if len(history) > 0 {
		answer.Answer += fmt.Sprintf("\n\n_(mock mode; %d prior messages in context)_", len(history))
	}
	return answer, nil
}

func (c *MockClient) cannedAnswer(query string) string {
	q := strings.ToLower(query)

	switch {
	case strings.Contains(q, "hello") || strings.Contains(q, "hi"):
		return "Hello! I'm running in mock mode, so my answers are canned, but the rest of the app behaves exactly as it would against the real service."
	case strings.Contains(q, "go") || strings.Contains(q, "golang"):
		return "Go is a statically typed, compiled language designed at Google. It is known for goroutines, channels, and fast build times."
	case strings.Contains(q, "weather"):
		return "I can't check live weather in mock mode, but it's always sunny in the test suite."
	default:
		return fmt.Sprintf("Here is a mock answer to %q. Point the client at a running backend to get real ones.", query)
	}
}

func cannedSources(query string) []Source {
	q := strings.ToLower(query)
	if strings.Contains(q, "go") || strings.Contains(q, "golang") {
		return []Source{
			{Title: "The Go Programming Language", URL: "https://go.dev"},
			{Title: "Effective Go", URL: "https://go.dev/doc/effective_go"},
		}
	}
	return []Source{
		{Title: "Mock source", URL: "https://example.com/mock"},
	}
}
