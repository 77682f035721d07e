// Package core provides the execution model types for verify-runner.
package core

// Attachment represents an artifact written during step execution
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: screenshot, error_screenshot
	ContentType string `json:"contentType"` // MIME type: image/png
	Path        string `json:"path"`        // File path as written
	Label       string `json:"label,omitempty"`
	Body        []byte `json:"-"` // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentScreenshot      = "screenshot"
	AttachmentErrorScreenshot = "error_screenshot"
)

// Common content types
const (
	ContentTypePNG  = "image/png"
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
)

// NewScreenshotAttachment creates a screenshot attachment
func NewScreenshotAttachment(path, label string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentScreenshot,
		ContentType: ContentTypePNG,
		Path:        path,
		Label:       label,
		Body:        data,
	}
}

// NewErrorScreenshotAttachment creates the attachment for a diagnostic
// screenshot taken after a failure.
func NewErrorScreenshotAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentErrorScreenshot,
		ContentType: ContentTypePNG,
		Path:        path,
		Label:       "error",
		Body:        data,
	}
}
