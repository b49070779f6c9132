package vertex

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOpName = "projects/demo-project/locations/us-central1/publishers/google/models/veo-3.0-fast-generate-001/operations/op-123"

// lroServer answers the submit with an operation handle and reports done
// after pendingPolls status requests.
type lroServer struct {
	pendingPolls int32
	donePayload  string
	posts        int32
	gets         int32
	lastBody     map[string]any
}

func (s *lroServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			atomic.AddInt32(&s.posts, 1)
			assert.Equal(t, "/v1/projects/demo-project/locations/us-central1/publishers/google/models/veo-3.0-fast-generate-001:predictLongRunning", r.URL.Path)
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&s.lastBody))
			_, _ = io.WriteString(w, `{"name":"`+testOpName+`"}`)
		case http.MethodGet:
			n := atomic.AddInt32(&s.gets, 1)
			assert.Equal(t, "/v1/"+testOpName, r.URL.Path)
			if s.pendingPolls >= 0 && n > s.pendingPolls {
				_, _ = io.WriteString(w, s.donePayload)
				return
			}
			_, _ = io.WriteString(w, `{"name":"`+testOpName+`","done":false}`)
		}
	}
}

func TestGenerateVideoPollsUntilDone(t *testing.T) {
	lro := &lroServer{
		pendingPolls: 3,
		donePayload: `{"name":"` + testOpName + `","done":true,"response":{
			"predictions":[{"gcsUris":["gs://bucket/a.mp4"]},{"bytesBase64Encoded":"AAAA"}],
			"raiMediaFilteredCount":1,"raiMediaFilteredReasons":["celebrity"]}}`,
	}
	srv := httptest.NewServer(lro.handler(t))
	defer srv.Close()

	c, clock := newTestClient(t, srv.URL, Config{PollInterval: 3 * time.Second})
	res, err := c.GenerateVideo(context.Background(), VideoRequest{
		Prompt:          "A phone shows the due date.",
		DurationSeconds: 6,
		AspectRatio:     "16:9",
		Resolution:      "1080p",
	})
	require.NoError(t, err)

	assert.EqualValues(t, 1, atomic.LoadInt32(&lro.posts))
	assert.EqualValues(t, 4, atomic.LoadInt32(&lro.gets))
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second, 3 * time.Second}, clock.slept)

	assert.Equal(t, []string{"gs://bucket/a.mp4"}, res.VideoURIs)
	assert.Equal(t, []string{"AAAA"}, res.InlineVideos)
	assert.Equal(t, 1, res.SafetyInfo.FilteredCount)
	assert.Equal(t, []string{"celebrity"}, res.SafetyInfo.FilteredReasons)

	params := lro.lastBody["parameters"].(map[string]any)
	assert.Equal(t, "16:9", params["aspectRatio"])
	assert.Equal(t, "1080p", params["resolution"])
	assert.EqualValues(t, 6, params["durationSeconds"])
	assert.EqualValues(t, 1, params["sampleCount"])
	assert.NotContains(t, params, "seed")
	assert.NotContains(t, params, "storageUri")
}

func TestGenerateVideoImmediateResponse(t *testing.T) {
	var gets int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			atomic.AddInt32(&gets, 1)
		}
		_, _ = io.WriteString(w, `{"videos":[{"gcsUri":"gs://bucket/now.mp4","mimeType":"video/mp4"}]}`)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, Config{})
	res, err := c.GenerateVideo(context.Background(), VideoRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"gs://bucket/now.mp4"}, res.VideoURIs)
	assert.Empty(t, res.InlineVideos)
	assert.Zero(t, atomic.LoadInt32(&gets))
}

func TestGenerateVideoPayloadOptions(t *testing.T) {
	lro := &lroServer{pendingPolls: 0, donePayload: `{"done":true,"response":{}}`}
	srv := httptest.NewServer(lro.handler(t))
	defer srv.Close()

	seed := 42
	c, _ := newTestClient(t, srv.URL, Config{OutputGCS: "gs://bucket/episodes"})
	res, err := c.GenerateVideo(context.Background(), VideoRequest{Prompt: "x", SampleCount: 2, Seed: &seed})
	require.NoError(t, err)
	assert.Empty(t, res.VideoURIs)
	assert.Empty(t, res.InlineVideos)

	instances := lro.lastBody["instances"].([]any)
	assert.Equal(t, "x", instances[0].(map[string]any)["prompt"])
	params := lro.lastBody["parameters"].(map[string]any)
	assert.EqualValues(t, 42, params["seed"])
	assert.EqualValues(t, 2, params["sampleCount"])
	assert.Equal(t, "gs://bucket/episodes/", params["storageUri"])
}

func TestWaitOperationTimeout(t *testing.T) {
	lro := &lroServer{pendingPolls: -1}
	srv := httptest.NewServer(lro.handler(t))
	defer srv.Close()

	c, clock := newTestClient(t, srv.URL, Config{PollInterval: 3 * time.Second, PollTimeout: 10 * time.Second})
	_, err := c.WaitOperation(context.Background(), testOpName, clock.now())

	var timeout *OperationTimeout
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, testOpName, timeout.Name)
	assert.Equal(t, 5, timeout.Polls)
	assert.Equal(t, 12*time.Second, timeout.Elapsed)
	assert.EqualValues(t, 5, atomic.LoadInt32(&lro.gets))
}

func TestWaitOperationFailedOperation(t *testing.T) {
	lro := &lroServer{
		pendingPolls: 1,
		donePayload:  `{"name":"` + testOpName + `","done":true,"error":{"code":3,"message":"prompt rejected"}}`,
	}
	srv := httptest.NewServer(lro.handler(t))
	defer srv.Close()

	c, clock := newTestClient(t, srv.URL, Config{})
	_, err := c.WaitOperation(context.Background(), testOpName, clock.now())

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, 3, opErr.Code)
	assert.Equal(t, "prompt rejected", opErr.Message)
}

func TestWaitOperationStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "no such operation")
	}))
	defer srv.Close()

	c, clock := newTestClient(t, srv.URL, Config{})
	_, err := c.WaitOperation(context.Background(), testOpName, clock.now())

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, http.StatusNotFound, genErr.Status)
	assert.Equal(t, "no such operation", genErr.Body)
}

func TestWaitOperationHonoursCancel(t *testing.T) {
	lro := &lroServer{pendingPolls: -1}
	srv := httptest.NewServer(lro.handler(t))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, Config{PollInterval: time.Hour})
	c.sleep = sleepCtx
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.WaitOperation(ctx, testOpName, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractMedia(t *testing.T) {
	count := 2
	res := ExtractMedia(&PredictResult{
		Predictions: []Prediction{
			{GcsURIs: []string{"gs://b/1.mp4", "gs://b/2.mp4"}},
			{BytesBase64Encoded: "Zm9v", GcsURI: "gs://b/3.mp4"},
			{RaiFilteredReason: "violence"},
		},
		Videos:                  []Prediction{{BytesBase64Encoded: "YmFy"}},
		RaiMediaFilteredCount:   &count,
		RaiMediaFilteredReasons: []string{"violence", "pii"},
	})

	assert.Equal(t, []string{"gs://b/1.mp4", "gs://b/2.mp4", "gs://b/3.mp4"}, res.VideoURIs)
	assert.Equal(t, []string{"Zm9v", "YmFy"}, res.InlineVideos)
	assert.Equal(t, 2, res.SafetyInfo.FilteredCount)
	assert.Equal(t, []string{"violence", "pii"}, res.SafetyInfo.FilteredReasons)
	assert.Equal(t, []string{"violence"}, res.SafetyInfo.ItemReasons)

	empty := ExtractMedia(nil)
	assert.NotNil(t, empty.VideoURIs)
	assert.NotNil(t, empty.InlineVideos)
}
