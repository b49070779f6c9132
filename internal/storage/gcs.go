// Package storage writes a small object under the Veo output prefix to check
// that the service can reach the bucket.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

const smokeBody = "FinLit smoke test"

// ParseGCSURI splits gs://bucket/prefix into bucket and prefix. The prefix
// has no leading or trailing slash and may be empty.
func ParseGCSURI(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("not a gs:// uri: %q", uri)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in %q", uri)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// ObjectName is the smoke object written for the given prefix and time.
func ObjectName(prefix string, at time.Time) string {
	return path.Join(prefix, fmt.Sprintf("smoke-test-%d.txt", at.Unix()))
}

// SmokeWriter 向输出桶写入测试对象
type SmokeWriter struct {
	client *gcs.Client
	now    func() time.Time
	log    *logrus.Entry
}

func NewSmokeWriter(ctx context.Context, opts ...option.ClientOption) (*SmokeWriter, error) {
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &SmokeWriter{
		client: client,
		now:    time.Now,
		log:    logrus.WithField("component", "storage"),
	}, nil
}

// Write uploads a short text object under outputURI and returns its gs:// uri.
func (w *SmokeWriter) Write(ctx context.Context, outputURI string) (string, error) {
	bucket, prefix, err := ParseGCSURI(outputURI)
	if err != nil {
		return "", err
	}
	name := ObjectName(prefix, w.now())

	obj := w.client.Bucket(bucket).Object(name).NewWriter(ctx)
	obj.ContentType = "text/plain"
	if _, err := obj.Write([]byte(smokeBody)); err != nil {
		_ = obj.Close()
		return "", fmt.Errorf("write gs://%s/%s: %w", bucket, name, err)
	}
	if err := obj.Close(); err != nil {
		return "", fmt.Errorf("close gs://%s/%s: %w", bucket, name, err)
	}

	uri := "gs://" + bucket + "/" + name
	w.log.WithField("uri", uri).Info("smoke object written")
	return uri, nil
}

func (w *SmokeWriter) Close() error {
	return w.client.Close()
}
