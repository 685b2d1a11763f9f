// Package backend wraps an OpenAI-compatible completion API behind the
// narrow interface the decision engine and screen classifier consume.
// All failures here are expected to be handled fail-closed by callers.
package backend

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/vthunder/nudge/internal/logging"
)

// ErrUnavailable is returned when the breaker is open or no API key is
// configured. Callers treat it like any other backend failure.
var ErrUnavailable = errors.New("backend unavailable")

// Completer is the reasoning backend contract consumed by the engine
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// VisionCompleter extends Completer with image-grounded prompts
type VisionCompleter interface {
	Completer
	CompleteVision(ctx context.Context, prompt string, imagePNG []byte) (string, error)
}

// Config holds backend client settings
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	VisionModel string
	RatePerMin  float64 // max calls per minute, 0 = default 10
}

// Client calls the chat completions API with streaming, a circuit breaker
// and a rate limit so a flapping backend degrades to fail-closed decisions
// instead of hammering the API.
type Client struct {
	client      openaigo.Client
	model       string
	visionModel string
	hasKey      bool
	breaker     *gobreaker.CircuitBreaker
	limiter     *rate.Limiter
}

// New creates a backend client
func New(cfg Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
		option.WithMaxRetries(2),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")))
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = model
	}

	perMin := cfg.RatePerMin
	if perMin <= 0 {
		perMin = 10
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info("backend", "breaker %s -> %s", from, to)
		},
	})

	return &Client{
		client:      openaigo.NewClient(opts...),
		model:       model,
		visionModel: visionModel,
		hasKey:      cfg.APIKey != "",
		breaker:     breaker,
		limiter:     rate.NewLimiter(rate.Limit(perMin/60.0), 1),
	}
}

// Complete sends prompt to the model and accumulates the streamed chunks
// into one response string.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.stream(ctx, c.model, []openaigo.ChatCompletionMessageParamUnion{
		openaigo.UserMessage(prompt),
	})
}

// CompleteVision sends prompt plus a PNG screenshot to the vision model
func (c *Client) CompleteVision(ctx context.Context, prompt string, imagePNG []byte) (string, error) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(imagePNG)
	parts := []openaigo.ChatCompletionContentPartUnionParam{
		openaigo.TextContentPart(prompt),
		openaigo.ImageContentPart(openaigo.ChatCompletionContentPartImageImageURLParam{
			URL: dataURL,
		}),
	}
	return c.stream(ctx, c.visionModel, []openaigo.ChatCompletionMessageParamUnion{
		openaigo.UserMessage(parts),
	})
}

func (c *Client) stream(ctx context.Context, model string, messages []openaigo.ChatCompletionMessageParamUnion) (string, error) {
	if !c.hasKey {
		return "", ErrUnavailable
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	result, err := c.breaker.Execute(func() (any, error) {
		stream := c.client.Chat.Completions.NewStreaming(ctx, openaigo.ChatCompletionNewParams{
			Model:    openaigo.ChatModel(model),
			Messages: messages,
		})

		var sb strings.Builder
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) > 0 {
				sb.WriteString(chunk.Choices[0].Delta.Content)
			}
		}
		if err := stream.Err(); err != nil {
			return nil, fmt.Errorf("stream: %w", err)
		}
		return sb.String(), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrUnavailable
		}
		return "", err
	}
	return result.(string), nil
}
