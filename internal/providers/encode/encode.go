// Package encode talks to the external media processing service that
// stores and derives uploaded assets.
package encode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// MediaType selects the remote processing pipeline.
type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaImage MediaType = "image"
)

// UploadSpec carries the plan-resolved encoding parameters for an upload.
type UploadSpec struct {
	Folder    string
	Quality   string
	MaxHeight int
	CropMode  string
}

// OverlaySpec places a brand logo on a derived asset.
type OverlaySpec struct {
	LogoID  string
	Gravity string
	Width   int
	Opacity int
	OffsetX int
	OffsetY int
}

// TextSpec places a text watermark on a derived asset.
type TextSpec struct {
	Text    string
	Gravity string
	Opacity int
	OffsetX int
	OffsetY int
}

// TransformSpec describes a derived variant of a stored asset. Zero
// fields are omitted from the rendered transformation chain.
type TransformSpec struct {
	Width       int
	Height      int
	Crop        string
	AspectRatio string
	StartOffset float64
	EndOffset   float64
	Text        *TextSpec
	Overlay     *OverlaySpec
}

// Asset is the remote service's record of a stored or derived asset.
type Asset struct {
	PublicID string
	URL      string
	Bytes    int64
	Width    int
	Height   int
	Duration float64
}

// Encoder is the outbound port to the media processing service.
type Encoder interface {
	// Upload sends a source (remote URL or data URI) for storage and
	// eager encoding per spec.
	Upload(ctx context.Context, media MediaType, source string, spec UploadSpec) (*Asset, error)
	// TransformURL derives the delivery URL of a transformed variant.
	// It is pure URL construction; no remote call is made.
	TransformURL(media MediaType, publicID string, spec TransformSpec) string
	// Destroy removes a stored asset. Used to undo an upload whose
	// database commit failed.
	Destroy(ctx context.Context, media MediaType, publicID string) error
}

// ErrUnavailable marks a transport failure reaching the service.
var ErrUnavailable = errors.New("encode_service_unavailable")

// RemoteError is a non-2xx response from the service.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("encode service returned %d: %s", e.StatusCode, e.Message)
}

// Transient reports whether the request may succeed if retried.
func (e *RemoteError) Transient() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// IsTransient reports whether err is worth retrying against the service.
func IsTransient(err error) bool {
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Transient()
	}
	return false
}
