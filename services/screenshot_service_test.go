package services

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formfill/browser/browsertest"
)

func newTestS3Service(t *testing.T, endpoint string) *S3Service {
	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String("us-east-1"),
		Endpoint:         aws.String(endpoint),
		S3ForcePathStyle: aws.Bool(true),
		MaxRetries:       aws.Int(0),
		Credentials:      credentials.NewStaticCredentials("AKID", "SECRET", ""),
	})
	require.NoError(t, err)
	return &S3Service{s3Client: s3.New(sess), bucket: "shots", region: "us-east-1"}
}

func TestScreenshotService_SavesLocallyWithoutS3(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	svc := NewScreenshotService(nil, dir)
	svc.now = fixedClock(time.Unix(1700000000, 0))

	page := browsertest.NewPage("")
	page.Shot = []byte("png-bytes")

	url, err := svc.CaptureAndStore(page, "session-1")

	require.NoError(t, err)
	assert.Equal(t, "/static/screenshots/session-1_1700000000.png", url)
	data, err := os.ReadFile(filepath.Join(dir, "session-1_1700000000.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestScreenshotService_UploadsAndPresigns(t *testing.T) {
	var putPath string
	var putBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		putPath = r.URL.Path
		putBody, _ = io.ReadAll(r.Body)
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dir := t.TempDir()
	svc := NewScreenshotService(newTestS3Service(t, srv.URL), dir)
	svc.now = fixedClock(time.Unix(1700000000, 0))
	page := browsertest.NewPage("")
	page.Shot = []byte("png-bytes")

	url, err := svc.CaptureAndStore(page, "session-1")

	require.NoError(t, err)
	assert.Equal(t, "/shots/screenshots/session-1_1700000000.png", putPath)
	assert.Equal(t, []byte("png-bytes"), putBody)
	assert.True(t, strings.HasPrefix(url, srv.URL+"/shots/screenshots/session-1_1700000000.png?"), url)
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.NoFileExists(t, filepath.Join(dir, "session-1_1700000000.png"))
}

func TestScreenshotService_FallsBackToLocalWhenUploadFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`<Error><Code>AccessDenied</Code><Message>denied</Message></Error>`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	svc := NewScreenshotService(newTestS3Service(t, srv.URL), dir)
	svc.now = fixedClock(time.Unix(1700000000, 0))
	page := browsertest.NewPage("")
	page.Shot = []byte("png-bytes")

	url, err := svc.CaptureAndStore(page, "session-1")

	require.NoError(t, err)
	assert.Equal(t, "/static/screenshots/session-1_1700000000.png", url)
	assert.FileExists(t, filepath.Join(dir, "session-1_1700000000.png"))
}

func TestScreenshotService_CaptureFails(t *testing.T) {
	svc := NewScreenshotService(nil, t.TempDir())
	page := browsertest.NewPage("")
	page.ScreenshotErr = errors.New("page crashed")

	url, err := svc.CaptureAndStore(page, "s")

	assert.Error(t, err)
	assert.Empty(t, url)
}
