package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultRequestTimeout = 120 * time.Second

// FallbackAnswer is the assistant content shown when a query cannot be
// answered, whatever the cause. The wording is fixed so the transcript never
// leaks transport or service detail to the user.
const FallbackAnswer = "Sorry, I couldn't reach the answering service. Please try again."

// chatRequest is the JSON body POSTed to the answering service.
type chatRequest struct {
	Query   string        `json:"query"`
	History []chatMessage `json:"history"`
}

// chatMessage is one prior turn reduced to the pair the wire format carries.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatAnswer is the JSON body the answering service responds with.
type chatAnswer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// querier is the outbound surface the dispatcher talks to. AnswerClient
// implements it against the real service; MockClient implements it offline.
type querier interface {
	Ask(ctx context.Context, query string, history []chatMessage) (*chatAnswer, error)
}

// AnswerClient speaks the answering service's HTTP API: one POST per query,
// no retries.
type AnswerClient struct {
	Endpoint string
	HTTP     *http.Client
}

// NewAnswerClient builds a client for the chat endpoint. Empty or zero
// arguments fall back to the defaults.
func NewAnswerClient(endpoint string, timeout time.Duration) *AnswerClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &AnswerClient{
		Endpoint: endpoint,
		HTTP:     &http.Client{Timeout: timeout},
	}
}

// Ask sends one query with its history and returns the parsed answer. Every
// failure mode comes back as an error: request transport, a non-2xx status,
// a body that does not decode, or a decoded body missing the answer field.
func (c *AnswerClient) Ask(ctx context.Context, query string, history []chatMessage) (*chatAnswer, error) {
	if history == nil {
		history = []chatMessage{}
	}
	payload, err := json.Marshal(chatRequest{Query: query, History: history})
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(request)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode >= 300 {
		// The service reports errors as {"detail": "..."}.
		var errResp struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Detail != "" {
			return nil, fmt.Errorf("chat status %d: %s", resp.StatusCode, errResp.Detail)
		}
		return nil, fmt.Errorf("chat status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var answer chatAnswer
	if err := json.Unmarshal(body, &answer); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if answer.Answer == "" {
		return nil, fmt.Errorf("chat response missing answer field")
	}
	return &answer, nil
}

// Ping checks the service root, which answers GET / with a short status
// message. It returns the message, or an error when the service is down or
// unhappy.
func (c *AnswerClient) Ping(ctx context.Context) (string, error) {
	root, err := serviceRoot(c.Endpoint)
	if err != nil {
		return "", err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, root, nil)
	if err != nil {
		return "", fmt.Errorf("build ping request: %w", err)
	}

	resp, err := c.HTTP.Do(request)
	if err != nil {
		return "", fmt.Errorf("ping failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ping response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("ping status %d from %s", resp.StatusCode, root)
	}

	var status struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return "", fmt.Errorf("decode ping response: %w", err)
	}
	return status.Message, nil
}

// serviceRoot strips the chat path from the endpoint, leaving the service
// base URL the health check lives at.
func serviceRoot(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	u.Path = "/"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// Dispatcher turns queries into transcript-ready assistant turns. It owns
// the one rule the rest of the program relies on: Dispatch always produces
// a turn, collapsing every failure into the fixed fallback answer.
type Dispatcher struct {
	client querier
	logger *Logger
}

// NewDispatcher wires a dispatcher to its outbound client.
func NewDispatcher(client querier, logger *Logger) *Dispatcher {
	return &Dispatcher{client: client, logger: logger}
}

// Dispatch sends query with the prior turns as context and returns the
// assistant turn to append: the service's answer on success, the fallback
// turn on any failure. The cause is logged but never distinguishable from
// the returned turn.
func (d *Dispatcher) Dispatch(ctx context.Context, query string, history []Turn) Turn {
	answer, err := d.client.Ask(ctx, query, historyMessages(history))
	if err != nil {
		d.logger.Error("query dispatch failed", "error", err)
		return NewAssistantTurn(FallbackAnswer, nil)
	}
	d.logger.Debug("query answered", "sources", len(answer.Sources))
	return NewAssistantTurn(answer.Answer, answer.Sources)
}

// historyMessages reduces prior turns to the {role, content} pairs the wire
// format carries. Citation sources never leave the client.
func historyMessages(turns []Turn) []chatMessage {
	if len(turns) == 0 {
		return nil
	}
	out := make([]chatMessage, 0, len(turns))
	for _, turn := range turns {
		out = append(out, chatMessage{Role: string(turn.Role), Content: turn.Content})
	}
	return out
}
