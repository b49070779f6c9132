package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	defaultRegion       = "us-central1"
	defaultGeminiModel  = "google/gemini-2.5-pro"
	defaultVeoModel     = "veo-3.0-fast-generate-001"
	defaultPollInterval = 3 * time.Second
	defaultPollTimeout  = 900 * time.Second
	defaultHTTPTimeout  = 60 * time.Second
)

// Config is built once at startup and handed to NewClient.
type Config struct {
	Project       string
	Region        string
	GeminiModelID string
	VeoModelID    string
	// OutputGCS is an optional gs:// prefix where rendered clips are written.
	OutputGCS    string
	PollInterval time.Duration
	PollTimeout  time.Duration
	HTTPTimeout  time.Duration
	// BaseURL overrides https://{region}-aiplatform.googleapis.com.
	BaseURL string
	Mock    bool
}

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = defaultRegion
	}
	if c.GeminiModelID == "" {
		c.GeminiModelID = defaultGeminiModel
	}
	if c.VeoModelID == "" {
		c.VeoModelID = defaultVeoModel
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = defaultPollTimeout
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaultHTTPTimeout
	}
	if c.BaseURL == "" {
		c.BaseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com", c.Region)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
}

// Client talks to the Vertex AI text and video generation endpoints.
// It is safe for concurrent use.
type Client struct {
	cfg        Config
	tokens     oauth2.TokenSource
	HTTPClient *http.Client
	log        *logrus.Entry

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewClient builds a client. tokens may be nil only in mock mode.
func NewClient(cfg Config, tokens oauth2.TokenSource) *Client {
	cfg.applyDefaults()
	return &Client{
		cfg:        cfg,
		tokens:     tokens,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		log:        logrus.WithField("component", "vertex"),
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// Config returns the effective configuration after defaults.
func (c *Client) Config() Config {
	return c.cfg
}

func (c *Client) bearer() (string, error) {
	if c.tokens == nil {
		return "", &AuthError{Err: ErrNoCredentials}
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return "", &AuthError{Err: err}
	}
	return tok.AccessToken, nil
}

func (c *Client) doJSON(ctx context.Context, method, url string, body any, out any) error {
	token, err := c.bearer()
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	c.log.WithFields(logrus.Fields{"method": method, "url": url}).Debug("vertex request")
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer res.Body.Close()

	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &GenerationError{Method: method, URL: url, Status: res.StatusCode, Body: string(bodyBytes)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("decode %s response: %w", url, err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
