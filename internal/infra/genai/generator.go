// Package genai adapts the OpenAI chat-completions API to the TextGenerator
// port, wrapped in the resilience stack (circuit breaker, retry with
// backoff, bulkhead) used for all external calls.
package genai

import (
	"context"
	"errors"
	"time"

	"github.com/gooseworks/goose-copilot/internal/domain"
	"github.com/gooseworks/goose-copilot/internal/infra/resilience"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("infra/genai")

// completionAPI is the slice of the OpenAI client the generator needs.
// Narrowed to an interface so tests can fake the backend.
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator calls the generative text backend.
type Generator struct {
	api     completionAPI
	model   string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
	bh      *resilience.Bulkhead
	cfg     resilience.Config
}

// NewGenerator creates a Generator backed by the OpenAI API.
func NewGenerator(apiKey, model string, timeout time.Duration, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *Generator {
	return &Generator{
		api:     openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
		cb:      cb,
		bh:      resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:     cfg,
	}
}

type generateResult struct {
	text  string
	usage domain.TokenUsage
}

// Generate sends a composed prompt and returns the raw reply text. When
// jsonMode is set the backend is constrained to reply with a JSON object;
// validating the shape of that object stays with the caller.
//
// Failure modes: deadline expiry surfaces as ErrTimeout (retryable
// transport class), an open breaker as ErrCircuitOpen, and every other
// backend failure as ErrExternalService. A reply that arrives but does not
// parse is NOT an error here; that classification belongs to ParseJSON.
func (g *Generator) Generate(ctx context.Context, systemInstruction, prompt string, jsonMode bool) (string, domain.TokenUsage, error) {
	ctx, span := tracer.Start(ctx, "Generator.Generate")
	defer span.End()
	span.SetAttributes(attribute.Bool("genai.json_mode", jsonMode))

	if err := g.bh.Acquire(ctx); err != nil {
		return "", domain.TokenUsage{}, &domain.ErrExternalService{Service: "genai", Err: err}
	}
	defer g.bh.Release()

	var out generateResult

	result, err := g.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, g.cfg, func() error {
			callCtx, cancel := context.WithTimeout(ctx, g.timeout)
			defer cancel()

			messages := []openai.ChatCompletionMessage{}
			if systemInstruction != "" {
				messages = append(messages, openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemInstruction,
				})
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			})

			req := openai.ChatCompletionRequest{
				Model:    g.model,
				Messages: messages,
			}
			if jsonMode {
				req.ResponseFormat = &openai.ChatCompletionResponseFormat{
					Type: openai.ChatCompletionResponseFormatTypeJSONObject,
				}
			}

			resp, err := g.api.CreateChatCompletion(callCtx, req)
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 {
				return errors.New("backend returned no choices")
			}
			out = generateResult{
				text: resp.Choices[0].Message.Content,
				usage: domain.TokenUsage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
					TotalTokens:      resp.Usage.TotalTokens,
				},
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return out, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
			return "", domain.TokenUsage{}, &domain.ErrCircuitOpen{Service: "genai"}
		case errors.Is(err, context.DeadlineExceeded):
			return "", domain.TokenUsage{}, &domain.ErrTimeout{Operation: "genai.generate"}
		default:
			return "", domain.TokenUsage{}, &domain.ErrExternalService{Service: "genai", Err: err}
		}
	}

	res := result.(generateResult)
	return res.text, res.usage, nil
}
