// Package gemini implements ports.ModelAdapter with the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/meshed/agentgraph/internal/logging"
	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/ports"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com/"
	DefaultAPIVersion = "v1beta"
	DefaultModel      = "gemini-2.5-flash"
	defaultTimeout    = 60 * time.Second
)

// Config holds the adapter settings. Only APIKey is required.
type Config struct {
	APIKey          string
	Model           string
	BaseURL         string
	APIVersion      string
	Timeout         time.Duration
	MaxRetries      int
	Temperature     float64
	MaxOutputTokens int
	HTTPClient      *http.Client
	Logger          *slog.Logger

	// Backoff is the base wait between retries, multiplied by the attempt number.
	Backoff time.Duration
}

// Adapter sends prompts to a Gemini model.
type Adapter struct {
	client     *genai.Client
	model      string
	generation *genai.GenerateContentConfig
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
}

var _ ports.ModelAdapter = (*Adapter)(nil)

// New validates cfg and builds an Adapter.
func New(cfg Config) (*Adapter, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("new gemini adapter: api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	apiVersion := strings.TrimSpace(cfg.APIVersion)
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	// The Gemini API backend performs no network calls while building the client.
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    baseURL,
			APIVersion: apiVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("new gemini adapter: %w", err)
	}

	generation := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(cfg.Temperature)),
	}
	if cfg.MaxOutputTokens > 0 {
		generation.MaxOutputTokens = int32(cfg.MaxOutputTokens)
	}

	return &Adapter{
		client:     client,
		model:      model,
		generation: generation,
		timeout:    timeout,
		maxRetries: max(cfg.MaxRetries, 0),
		backoff:    backoff,
		logger:     logger,
	}, nil
}

// Generate implements ports.ModelAdapter. Transport failures, 429 and 5xx
// responses are retried up to MaxRetries times.
func (a *Adapter) Generate(ctx context.Context, call domain.ModelCall) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			a.logger.Debug("Retrying Gemini request", "attempt", attempt+1, "err", lastErr)
			if err := wait(ctx, a.backoff*time.Duration(attempt)); err != nil {
				return "", err
			}
		}

		text, retryable, err := a.do(ctx, call.Prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

func (a *Adapter) do(ctx context.Context, prompt string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), a.generation)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", false, fmt.Errorf("gemini request: %w", ctxErr)
		}
		if apiErr, ok := asAPIError(err); ok {
			retryable := apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
			return "", retryable, statusFault(apiErr)
		}
		return "", true, &domain.Fault{Kind: domain.FaultModelError, Code: domain.CodeUnavailable, Message: err.Error()}
	}

	text, err := responseText(resp)
	return text, false, err
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}

func statusFault(apiErr genai.APIError) *domain.Fault {
	msg := strings.TrimSpace(apiErr.Message)
	if msg == "" {
		msg = apiErr.Status
	}

	code := domain.CodeRemote
	switch {
	case apiErr.Code == http.StatusNotFound:
		code = domain.CodeNotFound
	case apiErr.Code == http.StatusBadRequest:
		code = domain.CodeInvalidArgs
	case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError:
		code = domain.CodeUnavailable
	}
	return &domain.Fault{
		Kind:    domain.FaultModelError,
		Code:    code,
		Message: fmt.Sprintf("gemini status=%d: %s", apiErr.Code, msg),
	}
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", &domain.Fault{
				Kind:    domain.FaultModelError,
				Code:    domain.CodeRemote,
				Message: "prompt blocked: " + string(resp.PromptFeedback.BlockReason),
			}
		}
		return "", &domain.Fault{Kind: domain.FaultModelError, Code: domain.CodeRemote, Message: "no candidates"}
	}
	return resp.Text(), nil
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
