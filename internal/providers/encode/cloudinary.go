package encode

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rushi-018/saas-imaging/internal/clock"
	"github.com/rushi-018/saas-imaging/internal/config"
)

// CloudinaryEncoder stores assets in Cloudinary through its upload API.
type CloudinaryEncoder struct {
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
	baseURL   string
	clk       clock.Clock
	client    *http.Client
}

func NewCloudinaryEncoder(cfg config.Config, clk clock.Clock) *CloudinaryEncoder {
	return &CloudinaryEncoder{
		cloudName: cfg.CloudinaryCloudName,
		apiKey:    cfg.CloudinaryAPIKey,
		apiSecret: cfg.CloudinaryAPISecret,
		folder:    cfg.CloudinaryFolder,
		baseURL:   "https://api.cloudinary.com",
		clk:       clk,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

// WithBaseURL points the encoder at a different API host, used in tests.
func (e *CloudinaryEncoder) WithBaseURL(baseURL string) *CloudinaryEncoder {
	e.baseURL = strings.TrimRight(baseURL, "/")
	return e
}

type uploadResponse struct {
	PublicID string  `json:"public_id"`
	URL      string  `json:"secure_url"`
	Bytes    int64   `json:"bytes"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Duration float64 `json:"duration"`
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (e *CloudinaryEncoder) Upload(ctx context.Context, media MediaType, source string, spec UploadSpec) (*Asset, error) {
	folder := strings.TrimSpace(spec.Folder)
	if folder == "" {
		folder = e.folder
	}

	params := map[string]string{
		"folder":         folder,
		"timestamp":      strconv.FormatInt(e.clk.Now().Unix(), 10),
		"transformation": UploadTransformation(spec),
	}
	params["signature"] = e.sign(params)

	values := url.Values{}
	values.Set("file", source)
	values.Set("api_key", e.apiKey)
	for key, value := range params {
		values.Set(key, value)
	}

	path := fmt.Sprintf("/v1_1/%s/%s/upload", e.cloudName, media)
	body, err := e.doRequest(ctx, path, values)
	if err != nil {
		return nil, err
	}

	var uploaded uploadResponse
	if err := json.Unmarshal(body, &uploaded); err != nil {
		return nil, &RemoteError{StatusCode: http.StatusBadGateway, Message: "malformed upload response"}
	}
	return &Asset{
		PublicID: uploaded.PublicID,
		URL:      uploaded.URL,
		Bytes:    uploaded.Bytes,
		Width:    uploaded.Width,
		Height:   uploaded.Height,
		Duration: uploaded.Duration,
	}, nil
}

func (e *CloudinaryEncoder) TransformURL(media MediaType, publicID string, spec TransformSpec) string {
	transformation := VariantTransformation(spec)
	if transformation == "" {
		return fmt.Sprintf("https://res.cloudinary.com/%s/%s/upload/%s", e.cloudName, media, publicID)
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/%s/upload/%s/%s", e.cloudName, media, transformation, publicID)
}

func (e *CloudinaryEncoder) Destroy(ctx context.Context, media MediaType, publicID string) error {
	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(e.clk.Now().Unix(), 10),
	}
	params["signature"] = e.sign(params)

	values := url.Values{}
	values.Set("api_key", e.apiKey)
	for key, value := range params {
		values.Set(key, value)
	}

	path := fmt.Sprintf("/v1_1/%s/%s/destroy", e.cloudName, media)
	_, err := e.doRequest(ctx, path, values)
	return err
}

func (e *CloudinaryEncoder) doRequest(ctx context.Context, path string, values url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var remoteErr errorBody
		message := "unknown error"
		if err := json.Unmarshal(body, &remoteErr); err == nil && strings.TrimSpace(remoteErr.Error.Message) != "" {
			message = strings.TrimSpace(remoteErr.Error.Message)
		}
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: message}
	}
	return body, nil
}

// sign computes the Cloudinary API signature: the sorted request params
// concatenated as a query string and hashed with the API secret.
func (e *CloudinaryEncoder) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + e.apiSecret))
	return hex.EncodeToString(sum[:])
}

var _ Encoder = (*CloudinaryEncoder)(nil)
