package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/schemaflow-backend/internal/domain"
	"github.com/yungbote/schemaflow-backend/internal/platform/envutil"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
)

// AIClient is the single seam to the vision-capable model. Both collaborators
// (classifier, schema generator) and the extractor go through it, so retry and
// timeout policy live here and nowhere else.
type AIClient interface {
	// GenerateJSON sends a prompt plus document attachments and returns the
	// model's output decoded as a JSON object.
	GenerateJSON(ctx context.Context, prompt string, docs []domain.Document) (map[string]any, error)
}

type openAIClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client

	callTimeout time.Duration
	maxRetries  int
}

func NewOpenAIClient(log *logger.Logger) (AIClient, error) {
	apiKey := envutil.Str("OPENAI_API_KEY", "")
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	return &openAIClient{
		log:         log.With("service", "AIClient"),
		baseURL:     envutil.Str("OPENAI_BASE_URL", "https://api.openai.com"),
		apiKey:      apiKey,
		model:       envutil.Str("OPENAI_MODEL", "gpt-4o"),
		httpClient:  &http.Client{},
		callTimeout: envutil.Duration("AI_CALL_TIMEOUT", 240*time.Second),
		maxRetries:  envutil.Int("AI_MAX_RETRIES", 3),
	}, nil
}

type aiHTTPError struct {
	StatusCode int
	Body       string
}

func (e *aiHTTPError) Error() string {
	return fmt.Sprintf("ai http %d: %s", e.StatusCode, e.Body)
}

func isRetryableHTTP(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

func isRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var httpErr *aiHTTPError
	if errors.As(err, &httpErr) {
		return isRetryableHTTP(httpErr.StatusCode)
	}
	return false
}

// +/- 20% so concurrent requests don't retry in lockstep.
func jitterSleep(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := base.Seconds() * 0.2
	low := base.Seconds() - delta
	v := low + rand.Float64()*2*delta
	return time.Duration(v * float64(time.Second))
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
	Temperature    float64       `json:"temperature"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *imagePayload `json:"image_url,omitempty"`
	File     *filePayload  `json:"file,omitempty"`
}

type imagePayload struct {
	URL string `json:"url"`
}

type filePayload struct {
	Filename string `json:"filename"`
	FileData string `json:"file_data"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func documentParts(docs []domain.Document) ([]contentPart, error) {
	parts := make([]contentPart, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Data) == 0 {
			continue
		}
		encoded := base64.StdEncoding.EncodeToString(doc.Data)
		if doc.MimeType == domain.MimePDF {
			parts = append(parts, contentPart{
				Type: "file",
				File: &filePayload{
					Filename: doc.Name,
					FileData: "data:" + domain.MimePDF + ";base64," + encoded,
				},
			})
			continue
		}
		parts = append(parts, contentPart{
			Type:     "image_url",
			ImageURL: &imagePayload{URL: "data:" + doc.MimeType + ";base64," + encoded},
		})
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("no readable documents provided")
	}
	return parts, nil
}

func (c *openAIClient) GenerateJSON(ctx context.Context, prompt string, docs []domain.Document) (map[string]any, error) {
	parts, err := documentParts(docs)
	if err != nil {
		return nil, err
	}
	content := append([]contentPart{{Type: "text", Text: prompt}}, parts...)
	req := chatRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: content}},
		ResponseFormat: &respFormat{Type: "json_object"},
		Temperature:    0.0,
	}

	var out chatResponse
	if err := c.do(ctx, "/v1/chat/completions", req, &out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("ai response carried no choices")
	}
	return ParseModelJSON(out.Choices[0].Message.Content)
}

func (c *openAIClient) doOnce(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &aiHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *openAIClient) do(ctx context.Context, path string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, path, body)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("ai decode error: %w", uErr)
			}
			return nil
		}

		if !isRetryableErr(err) || attempt == c.maxRetries {
			return err
		}

		sleepFor := backoff
		if resp != nil {
			if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
					sleepFor = time.Duration(secs) * time.Second
				}
			}
		}
		if sleepFor > 10*time.Second {
			sleepFor = 10 * time.Second
		}
		sleepFor = jitterSleep(sleepFor)

		c.log.Warn("AI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		select {
		case <-time.After(sleepFor):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}
