package encode

import (
	"fmt"
	"strings"
)

// UploadTransformation renders the eager transformation string for an
// upload, e.g. "c_limit,h_1080,q_80".
func UploadTransformation(spec UploadSpec) string {
	parts := []string{}
	crop := strings.TrimSpace(spec.CropMode)
	if crop == "" {
		crop = "limit"
	}
	parts = append(parts, "c_"+crop)
	if spec.MaxHeight > 0 {
		parts = append(parts, fmt.Sprintf("h_%d", spec.MaxHeight))
	}
	quality := strings.TrimSpace(spec.Quality)
	if quality == "" {
		quality = "auto"
	}
	parts = append(parts, "q_"+quality)
	return strings.Join(parts, ",")
}

// VariantTransformation renders the transformation chain for a derived
// variant, one segment per concern, e.g.
// "c_fill,ar_9:16,g_auto/l_logo-id,w_100,o_70,g_south_east,x_20,y_20".
func VariantTransformation(spec TransformSpec) string {
	segments := []string{}

	if spec.Width > 0 || spec.Height > 0 {
		crop := strings.TrimSpace(spec.Crop)
		if crop == "" {
			crop = "fill"
		}
		parts := []string{"c_" + crop}
		if spec.Width > 0 {
			parts = append(parts, fmt.Sprintf("w_%d", spec.Width))
		}
		if spec.Height > 0 {
			parts = append(parts, fmt.Sprintf("h_%d", spec.Height))
		}
		segments = append(segments, strings.Join(parts, ","))
	}

	ratio := strings.TrimSpace(spec.AspectRatio)
	if ratio != "" {
		segments = append(segments, "c_fill,ar_"+ratio+",g_auto")
	}

	if spec.StartOffset > 0 || spec.EndOffset > 0 {
		parts := []string{}
		if spec.StartOffset > 0 {
			parts = append(parts, fmt.Sprintf("so_%g", spec.StartOffset))
		}
		if spec.EndOffset > 0 {
			parts = append(parts, fmt.Sprintf("eo_%g", spec.EndOffset))
		}
		segments = append(segments, strings.Join(parts, ","))
	}

	if spec.Text != nil && strings.TrimSpace(spec.Text.Text) != "" {
		segments = append(segments, textSegment(*spec.Text))
	}

	if spec.Overlay != nil && strings.TrimSpace(spec.Overlay.LogoID) != "" {
		segments = append(segments, overlaySegment(*spec.Overlay))
	}

	return strings.Join(segments, "/")
}

func textSegment(text TextSpec) string {
	// Text overlays escape the payload into the URL path.
	encoded := strings.ReplaceAll(strings.TrimSpace(text.Text), " ", "%20")
	encoded = strings.ReplaceAll(encoded, ",", "%2C")
	encoded = strings.ReplaceAll(encoded, "/", "%2F")

	parts := []string{"l_text:Arial_40:" + encoded}
	if text.Opacity > 0 {
		parts = append(parts, fmt.Sprintf("o_%d", text.Opacity))
	}
	gravity := strings.TrimSpace(text.Gravity)
	if gravity == "" {
		gravity = "south_east"
	}
	parts = append(parts, "g_"+gravity)
	parts = append(parts, fmt.Sprintf("x_%d", text.OffsetX))
	parts = append(parts, fmt.Sprintf("y_%d", text.OffsetY))
	return strings.Join(parts, ",")
}

func overlaySegment(overlay OverlaySpec) string {
	// Overlay public IDs use ":" as the folder separator in
	// transformation paths.
	logoID := strings.ReplaceAll(strings.TrimSpace(overlay.LogoID), "/", ":")

	parts := []string{"l_" + logoID}
	if overlay.Width > 0 {
		parts = append(parts, fmt.Sprintf("w_%d", overlay.Width))
	}
	if overlay.Opacity > 0 {
		parts = append(parts, fmt.Sprintf("o_%d", overlay.Opacity))
	}
	gravity := strings.TrimSpace(overlay.Gravity)
	if gravity == "" {
		gravity = "south_east"
	}
	parts = append(parts, "g_"+gravity)
	parts = append(parts, fmt.Sprintf("x_%d", overlay.OffsetX))
	parts = append(parts, fmt.Sprintf("y_%d", overlay.OffsetY))
	return strings.Join(parts, ",")
}
