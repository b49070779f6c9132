package vertex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"finlit/internal/model"
)

const mockVideoURI = "https://example.com/mock_video.mp4"

// VideoRequest describes one text-to-video generation.
type VideoRequest struct {
	Prompt          string
	DurationSeconds int
	AspectRatio     string
	Resolution      string
	SampleCount     int
	Seed            *int
}

// Prediction is one generated sample. Depending on the output target the
// service returns storage URIs, inline bytes, or both.
type Prediction struct {
	GcsURIs            []string `json:"gcsUris,omitempty"`
	GcsURI             string   `json:"gcsUri,omitempty"`
	BytesBase64Encoded string   `json:"bytesBase64Encoded,omitempty"`
	MimeType           string   `json:"mimeType,omitempty"`
	RaiFilteredReason  string   `json:"raiFilteredReason,omitempty"`
}

// PredictResult is the payload of a completed video generation.
type PredictResult struct {
	Predictions             []Prediction `json:"predictions,omitempty"`
	Videos                  []Prediction `json:"videos,omitempty"`
	RaiMediaFilteredCount   *int         `json:"raiMediaFilteredCount,omitempty"`
	RaiMediaFilteredReasons []string     `json:"raiMediaFilteredReasons,omitempty"`
}

func (r *PredictResult) hasResults() bool {
	return len(r.Predictions) > 0 || len(r.Videos) > 0 || r.RaiMediaFilteredCount != nil
}

type operationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// operation is either a long-running operation handle or, for services that
// answer synchronously, the result itself.
type operation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Response *PredictResult  `json:"response,omitempty"`
	Error    *operationError `json:"error,omitempty"`
	PredictResult
}

func (op *operation) result() (*PredictResult, error) {
	if op.Error != nil {
		return nil, &OperationError{Name: op.Name, Code: op.Error.Code, Message: op.Error.Message}
	}
	if op.Response == nil {
		return &PredictResult{}, nil
	}
	return op.Response, nil
}

// GenerateVideo submits a text-to-video request and returns the rendered
// media, polling the long-running operation when the service does not answer
// immediately.
func (c *Client) GenerateVideo(ctx context.Context, vr VideoRequest) (*model.VideoResult, error) {
	if strings.TrimSpace(vr.Prompt) == "" {
		return nil, errors.New("video prompt required")
	}
	if c.cfg.Mock {
		return &model.VideoResult{VideoURIs: []string{mockVideoURI}, InlineVideos: []string{}}, nil
	}

	submitted := c.now()
	var op operation
	if err := c.doJSON(ctx, http.MethodPost, c.predictURL(), c.videoPayload(vr), &op); err != nil {
		return nil, err
	}

	var (
		res *PredictResult
		err error
	)
	switch {
	case op.hasResults():
		res = &op.PredictResult
	case op.Done:
		res, err = op.result()
	case op.Name != "":
		c.log.WithField("operation", op.Name).Info("video generation pending")
		res, err = c.WaitOperation(ctx, op.Name, submitted)
	default:
		err = errors.New("predictLongRunning response has neither results nor an operation name")
	}
	if err != nil {
		return nil, err
	}
	return ExtractMedia(res), nil
}

func (c *Client) videoPayload(vr VideoRequest) map[string]any {
	if vr.AspectRatio == "" {
		vr.AspectRatio = "16:9"
	}
	if vr.SampleCount <= 0 {
		vr.SampleCount = 1
	}
	if vr.DurationSeconds <= 0 {
		vr.DurationSeconds = 6
	}
	params := map[string]any{
		"aspectRatio":     vr.AspectRatio,
		"sampleCount":     vr.SampleCount,
		"durationSeconds": vr.DurationSeconds,
	}
	if vr.Resolution != "" {
		params["resolution"] = vr.Resolution
	}
	if vr.Seed != nil {
		params["seed"] = *vr.Seed
	}
	if c.cfg.OutputGCS != "" {
		params["storageUri"] = strings.TrimRight(c.cfg.OutputGCS, "/") + "/"
	}
	return map[string]any{
		"instances":  []map[string]any{{"prompt": vr.Prompt}},
		"parameters": params,
	}
}

// WaitOperation polls an operation until it reports done. The timeout is
// measured from submitted; once exceeded no further request is made.
func (c *Client) WaitOperation(ctx context.Context, name string, submitted time.Time) (*PredictResult, error) {
	url := c.cfg.BaseURL + "/v1/" + strings.TrimPrefix(name, "/")
	log := c.log.WithField("operation", name)

	for polls := 1; ; polls++ {
		var op operation
		if err := c.doJSON(ctx, http.MethodGet, url, nil, &op); err != nil {
			return nil, fmt.Errorf("poll operation %s: %w", name, err)
		}
		if op.Done {
			if op.Name == "" {
				op.Name = name
			}
			log.WithField("polls", polls).Info("video generation done")
			return op.result()
		}
		if elapsed := c.now().Sub(submitted); elapsed > c.cfg.PollTimeout {
			log.WithFields(logrus.Fields{"polls": polls, "elapsed": elapsed}).Warn("video generation timed out")
			return nil, &OperationTimeout{Name: name, Elapsed: elapsed, Polls: polls}
		}
		if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
			return nil, err
		}
	}
}

// ExtractMedia collects every storage URI and every inline blob, in order,
// and the moderation metadata. Safety info is kept even when some samples
// were filtered.
func ExtractMedia(res *PredictResult) *model.VideoResult {
	out := &model.VideoResult{VideoURIs: []string{}, InlineVideos: []string{}}
	if res == nil {
		return out
	}
	if res.RaiMediaFilteredCount != nil {
		out.SafetyInfo.FilteredCount = *res.RaiMediaFilteredCount
		out.SafetyInfo.FilteredReasons = append([]string(nil), res.RaiMediaFilteredReasons...)
	}
	items := append(append([]Prediction(nil), res.Predictions...), res.Videos...)
	for _, item := range items {
		out.VideoURIs = append(out.VideoURIs, item.GcsURIs...)
		if item.GcsURI != "" {
			out.VideoURIs = append(out.VideoURIs, item.GcsURI)
		}
		if item.BytesBase64Encoded != "" {
			out.InlineVideos = append(out.InlineVideos, item.BytesBase64Encoded)
		}
		if item.RaiFilteredReason != "" {
			out.SafetyInfo.ItemReasons = append(out.SafetyInfo.ItemReasons, item.RaiFilteredReason)
		}
	}
	return out
}

func (c *Client) predictURL() string {
	return fmt.Sprintf("%s/v1/%s:predictLongRunning", c.cfg.BaseURL, c.modelResource(c.cfg.VeoModelID))
}
