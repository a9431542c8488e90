package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolSieve/internal/config"
	pkgerrors "github.com/turtacn/MolSieve/pkg/errors"
)

type stored struct {
	body        []byte
	contentType string
}

// fakeS3 answers the handful of path-style calls the store makes.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string]stored
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	bucket, key := parts[0], ""
	if len(parts) == 2 {
		key = parts[1]
	}
	if bucket != f.bucket {
		return respond(http.StatusNotFound, nil), nil
	}

	switch req.Method {
	case http.MethodHead:
		if key == "" {
			return respond(http.StatusOK, nil), nil
		}
		if _, ok := f.objects[key]; ok {
			return respond(http.StatusOK, nil), nil
		}
		return respond(http.StatusNotFound, nil), nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if dec, ok := decodeChunked(body); ok {
			body = dec
		}
		f.objects[key] = stored{body: body, contentType: req.Header.Get("Content-Type")}
		resp := respond(http.StatusOK, nil)
		resp.Header.Set("ETag", `"etag"`)
		return resp, nil
	}
	return respond(http.StatusNotImplemented, nil), nil
}

func respond(status int, body []byte) *http.Response {
	return &http.Response{StatusCode: status, Header: http.Header{}, Body: io.NopCloser(bytes.NewReader(body))}
}

// decodeChunked strips aws-chunked framing (size;chunk-signature\r\ndata\r\n...0\r\n).
func decodeChunked(b []byte) ([]byte, bool) {
	s := string(b)
	if !strings.Contains(s, "\r\n") {
		return b, false
	}
	var out bytes.Buffer
	for s != "" {
		i := strings.Index(s, "\r\n")
		if i < 0 {
			return b, false
		}
		header := s[:i]
		if semi := strings.Index(header, ";"); semi >= 0 {
			header = header[:semi]
		}
		var size int
		for _, c := range header {
			switch {
			case c >= '0' && c <= '9':
				size = size*16 + int(c-'0')
			case c >= 'a' && c <= 'f':
				size = size*16 + int(c-'a'+10)
			case c >= 'A' && c <= 'F':
				size = size*16 + int(c-'A'+10)
			default:
				return b, false
			}
		}
		s = s[i+2:]
		if size == 0 {
			return out.Bytes(), true
		}
		if len(s) < size {
			return b, false
		}
		out.WriteString(s[:size])
		s = strings.TrimPrefix(s[size:], "\r\n")
	}
	return out.Bytes(), true
}

func newTestStore(t *testing.T, bucket string) (*Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{bucket: "runs", objects: map[string]stored{}}
	s, err := New(context.Background(), config.StorageConfig{
		Backend:   "s3",
		Bucket:    bucket,
		Region:    "us-east-1",
		Endpoint:  "https://mock.s3.local",
		AccessKey: "AKIA",
		SecretKey: "SECRET",
	}, nil, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: fake}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	require.NoError(t, err)
	return s, fake
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Backend: "s3"}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))
}

func TestStore_PutAndExists(t *testing.T) {
	s, fake := newTestStore(t, "runs")
	ctx := context.Background()
	assert.Equal(t, "runs", s.Bucket())

	require.NoError(t, s.Put(ctx, "runs/2026/01/02/r1.json", []byte(`{"run_id":"r1"}`), "application/json"))

	fake.mu.Lock()
	obj, ok := fake.objects["runs/2026/01/02/r1.json"]
	fake.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, "application/json", obj.contentType)
	assert.Equal(t, `{"run_id":"r1"}`, string(obj.body))

	exists, err := s.Exists(ctx, "runs/2026/01/02/r1.json")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Exists(ctx, "runs/missing.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_PutValidation(t *testing.T) {
	s, _ := newTestStore(t, "runs")
	assert.Error(t, s.Put(context.Background(), "", []byte("x"), ""))
	assert.Error(t, s.Put(context.Background(), "k", nil, ""))
}

func TestStore_Ping(t *testing.T) {
	s, _ := newTestStore(t, "runs")
	assert.NoError(t, s.Ping(context.Background()))

	other, _ := newTestStore(t, "elsewhere")
	err := other.Ping(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeStorage))
}

//Personal.AI order the ending
