package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"testing"
	"time"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studydocs/internal/config"
)

func TestClassifyMinIOError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "missing key", err: minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}, want: ErrObjectNotFound},
		{name: "throttled", err: minio.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable}, want: ErrTransient},
		{name: "server error", err: minio.ErrorResponse{Code: "InternalError", StatusCode: http.StatusInternalServerError}, want: ErrTransient},
		{name: "access denied", err: minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, want: ErrFatal},
		{name: "network", err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}, want: ErrTransient},
		{name: "deadline", err: context.DeadlineExceeded, want: ErrTransient},
		{name: "canceled", err: context.Canceled, want: ErrFatal},
		{name: "unrecognised", err: errors.New("boom"), want: ErrFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyMinIOError("get", "documents/a.pdf", tt.err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "documents/a.pdf")
		})
	}
}

func TestClassifyS3Error(t *testing.T) {
	respErr := func(status int) error {
		return &awshttp.ResponseError{
			ResponseError: &smithyhttp.ResponseError{
				Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
				Err:      errors.New("response error"),
			},
		}
	}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "typed no such key", err: &types.NoSuchKey{}, want: ErrObjectNotFound},
		{name: "api not found", err: &smithy.GenericAPIError{Code: "NotFound"}, want: ErrObjectNotFound},
		{name: "api throttling", err: &smithy.GenericAPIError{Code: "SlowDown"}, want: ErrTransient},
		{name: "http 503", err: respErr(http.StatusServiceUnavailable), want: ErrTransient},
		{name: "http 429", err: respErr(http.StatusTooManyRequests), want: ErrTransient},
		{name: "http 403", err: respErr(http.StatusForbidden), want: ErrFatal},
		{name: "http 404", err: respErr(http.StatusNotFound), want: ErrObjectNotFound},
		{name: "network", err: &net.DNSError{Err: "no such host", Name: "s3.example"}, want: ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyS3Error("get", "k", tt.err), tt.want)
		})
	}
}

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "unrecognised error", err: errors.New("signature mismatch"), want: ErrFatal},
		{name: "url error without timeout", err: &url.Error{Op: "Get", URL: "ftp://x", Err: errors.New("unsupported protocol scheme")}, want: ErrFatal},
		{name: "dial failure", err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, want: ErrTransient},
		{name: "url wrapping dial failure", err: &url.Error{Op: "Put", URL: "http://minio:9000", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}, want: ErrTransient},
		{name: "connection reset", err: fmt.Errorf("read body: %w", syscall.ECONNRESET), want: ErrTransient},
		{name: "truncated body", err: io.ErrUnexpectedEOF, want: ErrTransient},
		{name: "deadline", err: context.DeadlineExceeded, want: ErrTransient},
		{name: "canceled", err: context.Canceled, want: ErrFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyTransportError("put", "k", tt.err), tt.want)
		})
	}
}

func TestS3Storage_PresignGet(t *testing.T) {
	s, err := NewS3(context.Background(), config.S3Config{
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Region:          "us-east-1",
		Bucket:          "docs",
		Endpoint:        "http://localhost:9000",
	})
	require.NoError(t, err)

	u, err := s.PresignGet(context.Background(), "documents/a.pdf", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://localhost:9000/docs/documents/a.pdf?"), u)
	assert.Contains(t, u, "X-Amz-Expires=300")
	assert.Contains(t, u, "X-Amz-Signature=")
}

func TestNewS3_Incomplete(t *testing.T) {
	s, err := NewS3(context.Background(), config.S3Config{AccessKeyID: "id"})
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestNewMinIO_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MinIOConfig
	}{
		{name: "missing endpoint", cfg: config.MinIOConfig{AccessKey: "a", SecretKey: "b", Bucket: "c"}},
		{name: "missing credentials", cfg: config.MinIOConfig{Endpoint: "localhost:9000", Bucket: "c"}},
		{name: "missing bucket", cfg: config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewMinIO(tt.cfg)
			assert.Error(t, err)
			assert.Nil(t, s)
		})
	}
}
