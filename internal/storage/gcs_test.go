package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseGCSURI(t *testing.T) {
	tests := []struct {
		uri        string
		bucket     string
		prefix     string
		wantErrStr string
	}{
		{uri: "gs://bucket", bucket: "bucket"},
		{uri: "gs://bucket/", bucket: "bucket"},
		{uri: "gs://bucket/veo/out/", bucket: "bucket", prefix: "veo/out"},
		{uri: "gs://bucket/veo", bucket: "bucket", prefix: "veo"},
		{uri: "s3://bucket/veo", wantErrStr: "not a gs:// uri"},
		{uri: "gs:///veo", wantErrStr: "missing bucket"},
		{uri: "", wantErrStr: "not a gs:// uri"},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, prefix, err := ParseGCSURI(tt.uri)
			if tt.wantErrStr != "" {
				assert.ErrorContains(t, err, tt.wantErrStr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.prefix, prefix)
		})
	}
}

func TestObjectName(t *testing.T) {
	at := time.Unix(1757844000, 0)
	assert.Equal(t, "veo/out/smoke-test-1757844000.txt", ObjectName("veo/out", at))
	assert.Equal(t, "smoke-test-1757844000.txt", ObjectName("", at))
}
