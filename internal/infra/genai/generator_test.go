package genai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gooseworks/goose-copilot/internal/domain"
	"github.com/gooseworks/goose-copilot/internal/infra/resilience"

	openai "github.com/sashabaranov/go-openai"
)

type fakeAPI struct {
	calls   int
	lastReq openai.ChatCompletionRequest
	resp    openai.ChatCompletionResponse
	err     error
}

func (f *fakeAPI) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.lastReq = req
	return f.resp, f.err
}

func newTestGenerator(api completionAPI) *Generator {
	cfg := resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond, MaxConcurrency: 1}
	return &Generator{
		api:     api,
		model:   "gpt-4o-mini",
		timeout: time.Second,
		cb:      resilience.NewCircuitBreaker("test"),
		bh:      resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:     cfg,
	}
}

func TestGenerate_ReturnsTextAndUsage(t *testing.T) {
	api := &fakeAPI{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "a reply"}},
		},
		Usage: openai.Usage{PromptTokens: 12, CompletionTokens: 8, TotalTokens: 20},
	}}
	g := newTestGenerator(api)

	text, usage, err := g.Generate(context.Background(), "be helpful", "hello", false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "a reply" {
		t.Errorf("unexpected text: %q", text)
	}
	if usage.TotalTokens != 20 || usage.PromptTokens != 12 {
		t.Errorf("unexpected usage: %+v", usage)
	}
	if len(api.lastReq.Messages) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(api.lastReq.Messages))
	}
	if api.lastReq.Messages[0].Role != openai.ChatMessageRoleSystem || api.lastReq.Messages[0].Content != "be helpful" {
		t.Errorf("unexpected system message: %+v", api.lastReq.Messages[0])
	}
	if api.lastReq.ResponseFormat != nil {
		t.Error("json response format must not be set by default")
	}
}

func TestGenerate_EmptySystemInstructionOmitsMessage(t *testing.T) {
	api := &fakeAPI{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "ok"}}},
	}}
	g := newTestGenerator(api)

	if _, _, err := g.Generate(context.Background(), "", "hello", false); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(api.lastReq.Messages) != 1 || api.lastReq.Messages[0].Role != openai.ChatMessageRoleUser {
		t.Errorf("expected a lone user message, got %+v", api.lastReq.Messages)
	}
}

func TestGenerate_JSONMode(t *testing.T) {
	api := &fakeAPI{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "{}"}}},
	}}
	g := newTestGenerator(api)

	if _, _, err := g.Generate(context.Background(), "sys", "prompt", true); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if api.lastReq.ResponseFormat == nil || api.lastReq.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Errorf("expected json object response format, got %+v", api.lastReq.ResponseFormat)
	}
}

func TestGenerate_BackendErrorMapsToExternalService(t *testing.T) {
	api := &fakeAPI{err: errors.New("boom")}
	g := newTestGenerator(api)

	_, _, err := g.Generate(context.Background(), "", "hello", false)
	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if external.Service != "genai" {
		t.Errorf("unexpected service: %s", external.Service)
	}
}

func TestGenerate_NoChoicesIsExternalServiceError(t *testing.T) {
	api := &fakeAPI{resp: openai.ChatCompletionResponse{}}
	g := newTestGenerator(api)

	_, _, err := g.Generate(context.Background(), "", "hello", false)
	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

// blockingAPI never answers; it waits out the per-call deadline.
type blockingAPI struct{}

func (blockingAPI) CreateChatCompletion(ctx context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	<-ctx.Done()
	return openai.ChatCompletionResponse{}, ctx.Err()
}

func TestGenerate_DeadlineExpiryMapsToTimeout(t *testing.T) {
	g := newTestGenerator(blockingAPI{})
	g.timeout = 20 * time.Millisecond

	_, _, err := g.Generate(context.Background(), "", "hello", false)
	var timeout *domain.ErrTimeout
	if !errors.As(err, &timeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if timeout.Operation != "genai.generate" {
		t.Errorf("unexpected operation: %s", timeout.Operation)
	}
}

func TestGenerate_OpenBreakerMapsToCircuitOpen(t *testing.T) {
	api := &fakeAPI{err: errors.New("backend down")}
	g := newTestGenerator(api)

	// Five straight failures trip the breaker.
	for i := 0; i < 5; i++ {
		if _, _, err := g.Generate(context.Background(), "", "hello", false); err == nil {
			t.Fatal("expected a backend failure")
		}
	}
	callsBefore := api.calls

	_, _, err := g.Generate(context.Background(), "", "hello", false)
	var open *domain.ErrCircuitOpen
	if !errors.As(err, &open) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if open.Service != "genai" {
		t.Errorf("unexpected service: %s", open.Service)
	}
	if api.calls != callsBefore {
		t.Errorf("open breaker still reached the backend %d times", api.calls-callsBefore)
	}
}

func TestGenerate_RetriesTransientFailures(t *testing.T) {
	api := &fakeAPI{err: errors.New("flaky")}
	g := newTestGenerator(api)
	g.cfg.MaxRetries = 2

	_, _, err := g.Generate(context.Background(), "", "hello", false)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if api.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", api.calls)
	}
}
