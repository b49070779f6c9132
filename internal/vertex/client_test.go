package vertex

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"finlit/internal/model"
	"finlit/internal/prompts"
)

type fakeClock struct {
	t     time.Time
	slept []time.Duration
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) sleep(_ context.Context, d time.Duration) error {
	f.t = f.t.Add(d)
	f.slept = append(f.slept, d)
	return nil
}

type failingTokenSource struct{}

func (failingTokenSource) Token() (*oauth2.Token, error) {
	return nil, errors.New("metadata server unreachable")
}

func newTestClient(t *testing.T, baseURL string, cfg Config) (*Client, *fakeClock) {
	t.Helper()
	cfg.Project = "demo-project"
	cfg.BaseURL = baseURL
	c := NewClient(cfg, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}))
	clock := &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	c.now = clock.now
	c.sleep = clock.sleep
	return c, clock
}

func testInputs() model.FinancialInputs {
	return model.FinancialInputs{
		Persona:            "college student",
		MonthlyBudget:      600,
		CurrentBalance:     480,
		DaysUntilDue:       10,
		APRPercent:         24.99,
		UtilizationPercent: 32,
		Goal:               "avoid interest and build credit",
		SceneTitle:         "First Statement Incoming",
	}
}

func TestModelResource(t *testing.T) {
	c := NewClient(Config{Project: "p", Region: "europe-west4"}, nil)
	prefix := "projects/p/locations/europe-west4"

	tests := []struct {
		name    string
		modelID string
		want    string
	}{
		{"full path kept", "projects/x/locations/y/publishers/google/models/z", "projects/x/locations/y/publishers/google/models/z"},
		{"publishers relative", "publishers/google/models/gemini-2.5-pro", prefix + "/publishers/google/models/gemini-2.5-pro"},
		{"models relative", "models/tuned-1", prefix + "/models/tuned-1"},
		{"publisher and name", "google/gemini-2.5-pro", prefix + "/publishers/google/models/gemini-2.5-pro"},
		{"bare name", "veo-3.0-fast-generate-001", prefix + "/publishers/google/models/veo-3.0-fast-generate-001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.modelResource(tt.modelID))
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{Project: "p"}, nil)
	cfg := c.Config()
	assert.Equal(t, "us-central1", cfg.Region)
	assert.Equal(t, "https://us-central1-aiplatform.googleapis.com", cfg.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
	assert.Equal(t, 900*time.Second, cfg.PollTimeout)
	assert.Equal(t, 60*time.Second, c.HTTPClient.Timeout)
}

func TestGenerateShotPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta1/projects/demo-project/locations/us-central1/publishers/google/models/gemini-2.5-pro:generateContent", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req generateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.SystemInstruction)
		assert.Equal(t, prompts.ShotPromptRules, req.SystemInstruction.Parts[0].Text)
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Contains(t, req.Contents[0].Parts[0].Text, `"current_balance":480`)
		assert.InDelta(t, 0.4, req.GenerationConfig.Temperature, 1e-9)

		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"`+
			"```json\\n{\\\"shot_prompt\\\": \\\"Due date on screen.\\\"}\\n```"+`"}]}}]}`)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, Config{})
	got, err := c.GenerateShotPrompt(context.Background(), testInputs())
	require.NoError(t, err)
	assert.Equal(t, "Due date on screen.", got)
}

func TestGenerateShotPromptErrors(t *testing.T) {
	t.Run("non-2xx surfaces status and body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"error":"overloaded"}`)
		}))
		defer srv.Close()

		c, _ := newTestClient(t, srv.URL, Config{})
		_, err := c.GenerateShotPrompt(context.Background(), testInputs())
		var genErr *GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.Equal(t, http.StatusServiceUnavailable, genErr.Status)
		assert.Equal(t, `{"error":"overloaded"}`, genErr.Body)
	})

	t.Run("empty candidates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"candidates":[]}`)
		}))
		defer srv.Close()

		c, _ := newTestClient(t, srv.URL, Config{})
		_, err := c.GenerateShotPrompt(context.Background(), testInputs())
		assert.ErrorIs(t, err, ErrEmptyCandidate)
	})

	t.Run("token refresh failure", func(t *testing.T) {
		var hits int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
		}))
		defer srv.Close()

		c := NewClient(Config{Project: "p", BaseURL: srv.URL}, failingTokenSource{})
		_, err := c.GenerateShotPrompt(context.Background(), testInputs())
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Zero(t, atomic.LoadInt32(&hits))
	})

	t.Run("no token source", func(t *testing.T) {
		c := NewClient(Config{Project: "p", BaseURL: "http://127.0.0.1:1"}, nil)
		_, err := c.GenerateShotPrompt(context.Background(), testInputs())
		assert.ErrorIs(t, err, ErrNoCredentials)
	})
}

func TestMockMode(t *testing.T) {
	c := NewClient(Config{Mock: true}, nil)

	prompt, err := c.GenerateShotPrompt(context.Background(), testInputs())
	require.NoError(t, err)
	assert.Contains(t, prompt, "statement balance")

	res, err := c.GenerateVideo(context.Background(), VideoRequest{Prompt: prompt})
	require.NoError(t, err)
	assert.Equal(t, []string{mockVideoURI}, res.VideoURIs)
}
