package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"chat-relay/internal/domain"
)

const defaultBaseURL = "https://api.openai.com/v1"

// tokenPayload is the JSON shape accepted for the API key stored in SSM.
type tokenPayload struct {
	Token string `json:"token"`
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client runs single-shot chat completions through the official SDK.
type Client struct {
	baseURL    string
	httpClient *http.Client

	getter    Getter
	paramName string

	keyMu  sync.Mutex
	apiKey string

	sdkOnce sync.Once
	sdk     *openaisdk.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client with a fixed API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai: api key must not be empty")
	}
	c := newClient(opts...)
	c.apiKey = apiKey
	return c, nil
}

// NewClientFromParamStore creates a Client whose API key is read from the
// parameter store on the first successful call to Complete and reused for the
// lifetime of the process.
func NewClientFromParamStore(ps Getter, paramName string, opts ...Option) (*Client, error) {
	if ps == nil {
		return nil, errors.New("openai: paramstore getter must not be nil")
	}
	paramName = strings.TrimSpace(paramName)
	if paramName == "" {
		return nil, errors.New("openai: token parameter name must not be empty")
	}
	c := newClient(opts...)
	c.getter = ps
	c.paramName = paramName
	return c, nil
}

func newClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// resolveAPIKey returns the cached key, fetching it from the parameter store
// when none is cached yet. Failed fetches are not cached.
func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	if c.apiKey != "" {
		return c.apiKey, nil
	}
	key, err := fetchAPIKeyFromParamStore(ctx, c.getter, c.paramName)
	if err != nil {
		return "", err
	}
	c.apiKey = key
	return key, nil
}

func (c *Client) client() *openaisdk.Client {
	c.sdkOnce.Do(func() {
		httpClient := c.httpClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: 30 * time.Second}
		}
		sdk := openaisdk.NewClient(
			option.WithBaseURL(apiBaseURL(c.baseURL)),
			option.WithHTTPClient(httpClient),
			option.WithMaxRetries(0),
		)
		c.sdk = &sdk
	})
	return c.sdk
}

// apiBaseURL normalizes a configured base URL to the versioned API root with
// a trailing slash, which the SDK expects.
func apiBaseURL(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base + "/"
}

// Complete sends messages to the Chat Completions endpoint and returns the
// content of the first choice.
func (c *Client) Complete(ctx context.Context, model string, messages []domain.ChatMessage) (string, error) {
	if model == "" {
		return "", errors.New("openai: model must not be empty")
	}

	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return "", err
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(model),
		Messages: toSDKMessages(messages),
	}

	res, err := c.client().Chat.Completions.New(ctx, params, option.WithAPIKey(apiKey))
	if err != nil {
		var apiErr *openaisdk.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai: request failed: %w", &HTTPStatusError{
				StatusCode: apiErr.StatusCode,
				URL:        apiBaseURL(c.baseURL) + "chat/completions",
				Body:       apiErr.Error(),
			})
		}
		return "", fmt.Errorf("openai: request failed: %w", err)
	}
	if res == nil || len(res.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	return res.Choices[0].Message.Content, nil
}

func toSDKMessages(messages []domain.ChatMessage) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openaisdk.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openaisdk.AssistantMessage(m.Content))
		default:
			out = append(out, openaisdk.UserMessage(m.Content))
		}
	}
	return out
}

// fetchAPIKeyFromParamStore reads the API key parameter. The value may be the
// raw key or a JSON object with a "token" field.
func fetchAPIKeyFromParamStore(ctx context.Context, getter Getter, name string) (string, error) {
	if getter == nil {
		return "", errors.New("openai: paramstore getter is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("openai: token parameter name is empty")
	}

	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("openai: fetch token from paramstore: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		if raw == "" {
			return "", errors.New("openai: API token is empty")
		}
		return raw, nil
	}

	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("openai: unmarshal paramstore token value as JSON: %w", err)
	}
	if tp.Token == "" {
		return "", errors.New("openai: API token is empty")
	}
	return tp.Token, nil
}
