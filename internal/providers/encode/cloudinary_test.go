package encode

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushi-018/saas-imaging/internal/clock"
	"github.com/rushi-018/saas-imaging/internal/config"
)

func newTestEncoder(t *testing.T, handler http.HandlerFunc) (*CloudinaryEncoder, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Config{
		CloudinaryCloudName: "demo",
		CloudinaryAPIKey:    "key-123",
		CloudinaryAPISecret: "secret-456",
		CloudinaryFolder:    "cloudmedia",
	}
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewCloudinaryEncoder(cfg, clk).WithBaseURL(server.URL), server
}

func TestCloudinaryUpload(t *testing.T) {
	enc, _ := newTestEncoder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1_1/demo/video/upload", r.URL.Path)
		require.NoError(t, r.ParseForm())

		assert.Equal(t, "https://example.com/in.mp4", r.Form.Get("file"))
		assert.Equal(t, "key-123", r.Form.Get("api_key"))
		assert.Equal(t, "cloudmedia", r.Form.Get("folder"))
		assert.Equal(t, "c_limit,h_1080,q_80", r.Form.Get("transformation"))
		assert.NotEmpty(t, r.Form.Get("timestamp"))

		signed := "folder=" + r.Form.Get("folder") +
			"&timestamp=" + r.Form.Get("timestamp") +
			"&transformation=" + r.Form.Get("transformation") +
			"secret-456"
		sum := sha1.Sum([]byte(signed))
		assert.Equal(t, hex.EncodeToString(sum[:]), r.Form.Get("signature"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"public_id":"cloudmedia/abc","secure_url":"https://res.cloudinary.com/demo/video/upload/cloudmedia/abc","bytes":1048576,"width":1920,"height":1080,"duration":12.5}`))
	})

	asset, err := enc.Upload(context.Background(), MediaVideo, "https://example.com/in.mp4", UploadSpec{
		Quality:   "80",
		MaxHeight: 1080,
	})
	require.NoError(t, err)
	assert.Equal(t, "cloudmedia/abc", asset.PublicID)
	assert.Equal(t, int64(1048576), asset.Bytes)
	assert.Equal(t, 12.5, asset.Duration)
}

func TestCloudinaryUploadRemoteError(t *testing.T) {
	enc, _ := newTestEncoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid transformation"}}`))
	})

	_, err := enc.Upload(context.Background(), MediaImage, "data:image/png;base64,x", UploadSpec{})
	require.Error(t, err)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusBadRequest, remoteErr.StatusCode)
	assert.Contains(t, remoteErr.Error(), "Invalid transformation")
	assert.False(t, IsTransient(err))
}

func TestCloudinaryUploadTransientError(t *testing.T) {
	enc, _ := newTestEncoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"Try again"}}`))
	})

	_, err := enc.Upload(context.Background(), MediaVideo, "https://example.com/in.mp4", UploadSpec{})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestCloudinaryDestroy(t *testing.T) {
	var path string
	enc, _ := newTestEncoder(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "cloudmedia/abc", r.Form.Get("public_id"))
		assert.NotEmpty(t, r.Form.Get("signature"))
		w.Write([]byte(`{"result":"ok"}`))
	})

	err := enc.Destroy(context.Background(), MediaImage, "cloudmedia/abc")
	require.NoError(t, err)
	assert.Equal(t, "/v1_1/demo/image/destroy", path)
}
