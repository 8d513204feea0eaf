package classify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// ErrMissingAPIKey is returned by NewGemini without an API key.
var ErrMissingAPIKey = errors.New("gemini: missing API key")

// GeminiOptions configures the Gemini classifier.
type GeminiOptions struct {
	APIKey string
	// Model defaults to gemini-2.0-flash.
	Model string
	// BaseURL defaults to https://generativelanguage.googleapis.com/v1beta.
	BaseURL string
	// Timeout bounds each HTTP attempt. Defaults to 60s.
	Timeout time.Duration
	// MaxRetries is the number of retries after a transient failure.
	MaxRetries int
	// InitialInterval is the first retry delay. Defaults to 500ms.
	InitialInterval time.Duration
	Logger          *zerolog.Logger
	HTTPClient      *http.Client
}

func (o *GeminiOptions) defaults() {
	if o.Model == "" {
		o.Model = "gemini-2.0-flash"
	}
	if o.BaseURL == "" {
		o.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.InitialInterval <= 0 {
		o.InitialInterval = 500 * time.Millisecond
	}
}

// Gemini classifies figures with the Gemini generateContent API.
type Gemini struct {
	opts   GeminiOptions
	url    string
	hc     *http.Client
	logger zerolog.Logger
	prompt string
}

// Ensure Gemini implements Classifier
var _ Classifier = (*Gemini)(nil)

// NewGemini creates a Gemini classifier.
func NewGemini(opts GeminiOptions) (*Gemini, error) {
	opts.defaults()
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	endpoint := strings.TrimRight(opts.BaseURL, "/") + "/models/" + url.PathEscape(opts.Model) + ":generateContent"
	return &Gemini{opts: opts, url: endpoint, hc: hc, logger: logger, prompt: Prompt()}, nil
}

// Request/response (minimal fields).
type gmInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type gmPart struct {
	Text       string        `json:"text,omitempty"`
	InlineData *gmInlineData `json:"inline_data,omitempty"`
}

type gmContent struct {
	Role  string   `json:"role,omitempty"`
	Parts []gmPart `json:"parts"`
}

type gmGenerationConfig struct {
	ResponseMIMEType string `json:"response_mime_type,omitempty"`
}

type gmReq struct {
	Contents         []gmContent         `json:"contents"`
	GenerationConfig *gmGenerationConfig `json:"generationConfig,omitempty"`
}

type gmResp struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// upstreamError is a retryable HTTP failure.
type upstreamError struct {
	status int
	msg    string
}

func (e upstreamError) Error() string { return fmt.Sprintf("gemini upstream %d: %s", e.status, e.msg) }

// Classify sends img to Gemini. Any failure yields the Fallback result.
func (g *Gemini) Classify(ctx context.Context, img image.Image) Result {
	res, err := g.classify(ctx, img)
	if err != nil {
		g.logger.Error().Err(err).Msg("classification failed")
		return Fallback()
	}
	return res
}

func (g *Gemini) classify(ctx context.Context, img image.Image) (Result, error) {
	body, err := g.encode(img)
	if err != nil {
		return Result{}, err
	}

	var text string
	op := func() error {
		t, err := g.invoke(ctx, body)
		if err == nil {
			text = t
			return nil
		}
		var up upstreamError
		if ctx.Err() == nil && (errors.As(err, &up) || isNetworkError(err)) {
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.opts.InitialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(g.opts.MaxRetries)), ctx)
	notify := func(err error, wait time.Duration) {
		g.logger.Warn().Err(err).Dur("wait", wait).Msg("retrying classification")
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return Result{}, err
	}

	return parseResult(text)
}

func (g *Gemini) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode PNG: %w", err)
	}

	req := gmReq{
		Contents: []gmContent{{
			Role: "user",
			Parts: []gmPart{
				{InlineData: &gmInlineData{MIMEType: "image/png", Data: base64.StdEncoding.EncodeToString(buf.Bytes())}},
				{Text: g.prompt},
			},
		}},
		GenerationConfig: &gmGenerationConfig{ResponseMIMEType: "application/json"},
	}
	return json.Marshal(&req)
}

func (g *Gemini) invoke(ctx context.Context, body []byte) (string, error) {
	u, err := url.Parse(g.url)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	q := u.Query()
	q.Set("key", g.opts.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		msg := strings.TrimSpace(string(slurp))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode/100 == 5 {
			return "", upstreamError{status: resp.StatusCode, msg: msg}
		}
		return "", fmt.Errorf("gemini upstream %d: %s", resp.StatusCode, msg)
	}

	var gr gmResp
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 || gr.Candidates[0].Content.Parts[0].Text == "" {
		return "", errors.New("gemini: empty response")
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

// parseResult decodes the model's JSON answer. A missing confidence
// defaults to 0.5.
func parseResult(text string) (Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var raw struct {
		Type        string         `json:"type"`
		Confidence  *float64       `json:"confidence"`
		Description string         `json:"description"`
		Details     map[string]any `json:"details"`
		Reasoning   string         `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return Result{}, fmt.Errorf("parse classification: %w", err)
	}

	res := Result{
		Classification: raw.Type,
		Confidence:     0.5,
		Description:    raw.Description,
		Details:        raw.Details,
		Reasoning:      raw.Reasoning,
	}
	if raw.Confidence != nil {
		res.Confidence = *raw.Confidence
	}
	if res.Description == "" {
		res.Description = "No description available"
	}
	return res.normalize(), nil
}

func isNetworkError(err error) bool {
	var ue *url.Error
	return errors.As(err, &ue)
}
