package domain

// Notification is a user-visible toast.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Destructive bool   `json:"destructive"`
}

// QuickPrompt is a suggested question shown before a conversation starts.
type QuickPrompt struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// QuickPrompts lists the suggestions offered on the welcome screen.
var QuickPrompts = []QuickPrompt{
	{Title: "Weather Forecast", Description: "Ask about upcoming weather for your crops"},
	{Title: "Pest Control", Description: "Get advice on managing pests naturally"},
	{Title: "Planting Tips", Description: "Best practices for current season"},
	{Title: "Harvest Schedule", Description: "When to harvest your crops"},
}

// ErrorText maps an error kind to the notification shown to the user.
func ErrorText(kind ErrorKind, detail string) Notification {
	switch kind {
	case ErrorKindPermissionDenied:
		return Notification{
			Title:       "Microphone Access Required",
			Description: "Please enable microphone access to use voice features.",
			Destructive: true,
		}
	case ErrorKindConfigMissing:
		return Notification{
			Title:       "Agent ID Required",
			Description: "Please enter your ElevenLabs Agent ID to start.",
		}
	case ErrorKindTransport:
		return Notification{
			Title:       "Connection Error",
			Description: "Failed to connect. Please check your Agent ID.",
			Destructive: true,
		}
	case ErrorKindRecognitionUnsupported:
		return Notification{
			Title:       "Speech Recognition Unavailable",
			Description: "Speech recognition is not configured on this device.",
			Destructive: true,
		}
	case ErrorKindCaptureUnavailable:
		return Notification{
			Title:       "Microphone Unavailable",
			Description: "No audio capture tool was found. Please install ffmpeg.",
			Destructive: true,
		}
	case ErrorKindDeliveryFailed:
		return Notification{
			Title:       "Message Not Sent",
			Description: "Could not reach the farm assistant. Please try again.",
			Destructive: true,
		}
	case ErrorKindStartup:
		return Notification{Title: "Startup failed", Description: detail, Destructive: true}
	default:
		if detail == "" {
			detail = "Unknown error"
		}
		return Notification{Title: "Error", Description: detail, Destructive: true}
	}
}

// ReasonText maps a transition reason to an informational notification.
// Transitions that need no toast return ok=false.
func ReasonText(reason SessionStateReason) (Notification, bool) {
	switch reason {
	case SessionReasonConnected:
		return Notification{Title: "Connected!", Description: "Your farm assistant is ready to help."}, true
	case SessionReasonDisconnected:
		return Notification{Title: "Disconnected", Description: "The connection to your farm assistant was closed."}, true
	case SessionReasonNoTranscript:
		return Notification{Title: "Nothing heard", Description: "No speech was captured. Tap to try again."}, true
	default:
		return Notification{}, false
	}
}

// PromptText is the hint shown under the voice button.
func PromptText(status Status) string {
	switch status.State {
	case SessionStateConnecting:
		return "Connecting..."
	case SessionStateStopping:
		return "Thinking..."
	case SessionStateActive:
		if status.Speaking {
			return "Assistant is speaking..."
		}
		return "Listening... Tap to end"
	default:
		return "Tap to start voice chat"
	}
}
