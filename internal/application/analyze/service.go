// Package analyze implements the media routing core: classify inbound
// content, dispatch it to the right provider chain and fold provider
// fallbacks into a single result.
package analyze

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	domain "github.com/bryanwahyu/mediaverify/internal/domain/analysis"
)

// mimeTypes maps declared content types to media types.
var mimeTypes = map[string]domain.MediaType{
	// Images
	"image/jpeg": domain.MediaImage,
	"image/png":  domain.MediaImage,
	"image/webp": domain.MediaImage,
	"image/gif":  domain.MediaImage,
	// Audio
	"audio/ogg":   domain.MediaAudio,
	"audio/mpeg":  domain.MediaAudio,
	"audio/mp3":   domain.MediaAudio,
	"audio/wav":   domain.MediaAudio,
	"audio/x-wav": domain.MediaAudio,
	// Video
	"video/mp4":        domain.MediaVideo,
	"video/avi":        domain.MediaVideo,
	"video/quicktime":  domain.MediaVideo,
	"video/x-matroska": domain.MediaVideo,
}

// extensions is the fallback table when no MIME type is declared.
var extensions = map[string]domain.MediaType{
	".jpg":  domain.MediaImage,
	".jpeg": domain.MediaImage,
	".png":  domain.MediaImage,
	".webp": domain.MediaImage,
	".mp3":  domain.MediaAudio,
	".ogg":  domain.MediaAudio,
	".wav":  domain.MediaAudio,
	".m4a":  domain.MediaAudio,
	".mp4":  domain.MediaVideo,
	".avi":  domain.MediaVideo,
	".mov":  domain.MediaVideo,
	".mkv":  domain.MediaVideo,
}

// Service routes a classified request through the provider chain for its
// media type. Detectors are ordered primary first.
type Service struct {
	ImagePrimary  domain.Detector
	ImageFallback domain.Detector
	AudioPrimary  domain.Detector
	AudioFallback domain.Detector
	Text          domain.Detector
	Video         domain.Detector
}

// DetectType determines the media type. Resolution order: non-empty text
// wins unconditionally, then the declared MIME type, then the filename
// extension.
func (s *Service) DetectType(contentType, filename, textContent string) (domain.MediaType, error) {
	if strings.TrimSpace(textContent) != "" {
		return domain.MediaText, nil
	}
	if mt, ok := mimeTypes[contentType]; ok {
		return mt, nil
	}
	if filename != "" {
		if mt, ok := extensions[strings.ToLower(filepath.Ext(filename))]; ok {
			return mt, nil
		}
	}
	return "", domain.ErrUnsupportedMedia
}

// Route dispatches to the adapter chain for the media type.
//
// Image: fallback on typed provider error; fallback errors propagate.
// Audio: fallback on typed error, or on an UNCERTAIN primary verdict with
// a merge of the two results.
// Video: delegated wholly to the frame pipeline.
// Text: the text content (or the raw bytes when none was given) goes to
// the text provider.
func (s *Service) Route(ctx context.Context, mediaType domain.MediaType, data []byte, textContent string) (*domain.Result, error) {
	switch mediaType {
	case domain.MediaImage:
		res, err := s.ImagePrimary.Analyze(ctx, data)
		if err != nil {
			var extErr *domain.ExternalServiceError
			if errors.As(err, &extErr) {
				return s.ImageFallback.Analyze(ctx, data)
			}
			return nil, err
		}
		return res, nil

	case domain.MediaAudio:
		res, err := s.AudioPrimary.Analyze(ctx, data)
		if err != nil {
			var extErr *domain.ExternalServiceError
			if errors.As(err, &extErr) {
				return s.AudioFallback.Analyze(ctx, data)
			}
			return nil, err
		}
		if res.Verdict == domain.VerdictUncertain {
			fallback, err := s.AudioFallback.Analyze(ctx, data)
			if err != nil {
				return nil, err
			}
			return mergeResults(res, fallback), nil
		}
		return res, nil

	case domain.MediaVideo:
		return s.Video.Analyze(ctx, data)

	case domain.MediaText:
		payload := data
		if textContent != "" {
			payload = []byte(textContent)
		}
		return s.Text.Analyze(ctx, payload)

	default:
		return nil, domain.ErrUnsupportedMedia
	}
}

// mergeResults combines an UNCERTAIN primary with the fallback verdict. A
// decisive fallback wins outright; two UNCERTAINs average out.
func mergeResults(primary, fallback *domain.Result) *domain.Result {
	if fallback.Verdict != domain.VerdictUncertain {
		return fallback
	}
	return &domain.Result{
		Verdict:     domain.VerdictUncertain,
		Confidence:  domain.Round4((primary.Confidence + fallback.Confidence) / 2),
		Model:       primary.Model,
		Explanation: primary.Explanation + "\n---\nFallback: " + fallback.Explanation,
		MediaType:   primary.MediaType,
	}
}
