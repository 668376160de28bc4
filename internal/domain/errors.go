package domain

import "errors"

// ErrorKind categorizes failures surfaced to the user.
type ErrorKind string

const (
	ErrorKindPermissionDenied       ErrorKind = "permission_denied"
	ErrorKindConfigMissing          ErrorKind = "config_missing"
	ErrorKindTransport              ErrorKind = "transport"
	ErrorKindRecognitionUnsupported ErrorKind = "recognition_unsupported"
	ErrorKindDeliveryFailed         ErrorKind = "delivery_failed"
	ErrorKindStartup                ErrorKind = "startup"
	ErrorKindCaptureUnavailable     ErrorKind = "capture_unavailable"
)

// Sentinel errors wrapped by adapters so the session can classify failures.
var (
	// ErrPermissionDenied indicates microphone access was refused.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrConfigMissing indicates a required agent identifier is not configured.
	ErrConfigMissing = errors.New("agent id is not configured")

	// ErrTransport indicates the voice service connection failed or dropped.
	ErrTransport = errors.New("voice transport failed")

	// ErrRecognitionUnsupported indicates speech recognition is unavailable.
	ErrRecognitionUnsupported = errors.New("speech recognition is not available")

	// ErrCaptureUnavailable indicates no audio capture tool could be launched.
	ErrCaptureUnavailable = errors.New("audio capture is not available")

	// ErrDeliveryFailed indicates the backend call failed or returned an unusable payload.
	ErrDeliveryFailed = errors.New("backend delivery failed")
)

// KindOf classifies err. Unknown errors are reported as transport failures.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return ErrorKindPermissionDenied
	case errors.Is(err, ErrConfigMissing):
		return ErrorKindConfigMissing
	case errors.Is(err, ErrRecognitionUnsupported):
		return ErrorKindRecognitionUnsupported
	case errors.Is(err, ErrCaptureUnavailable):
		return ErrorKindCaptureUnavailable
	case errors.Is(err, ErrDeliveryFailed):
		return ErrorKindDeliveryFailed
	default:
		return ErrorKindTransport
	}
}
