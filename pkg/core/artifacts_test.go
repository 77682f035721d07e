package core

import "testing"

func TestNewScreenshotAttachment(t *testing.T) {
	data := []byte{0x89, 0x50, 0x4E, 0x47} // PNG header
	attachment := NewScreenshotAttachment("out/01_initial_load.png", "initial load", data)

	if attachment.Name != AttachmentScreenshot {
		t.Errorf("Name = %s, want %s", attachment.Name, AttachmentScreenshot)
	}
	if attachment.ContentType != ContentTypePNG {
		t.Errorf("ContentType = %s, want %s", attachment.ContentType, ContentTypePNG)
	}
	if attachment.Path != "out/01_initial_load.png" {
		t.Errorf("Path = %s", attachment.Path)
	}
	if attachment.Label != "initial load" {
		t.Errorf("Label = %s", attachment.Label)
	}
	if len(attachment.Body) != 4 {
		t.Errorf("Body length = %d, want 4", len(attachment.Body))
	}
}

func TestNewErrorScreenshotAttachment(t *testing.T) {
	attachment := NewErrorScreenshotAttachment("out/error.png", nil)

	if attachment.Name != AttachmentErrorScreenshot {
		t.Errorf("Name = %s, want %s", attachment.Name, AttachmentErrorScreenshot)
	}
	if attachment.ContentType != ContentTypePNG {
		t.Errorf("ContentType = %s", attachment.ContentType)
	}
	if attachment.Label != "error" {
		t.Errorf("Label = %s, want error", attachment.Label)
	}
}
