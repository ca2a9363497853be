package idp

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
)

// MaxAttachmentSize matches the limit advertised on the application form.
const MaxAttachmentSize = 5 << 20

// Attachment is a binary file chosen by the user (photo, license scan, signature image).
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// LoadAttachment reads a file from disk and sniffs its content type.
func LoadAttachment(path string) (*Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read attachment")
	}
	return NewAttachment(filepath.Base(path), data), nil
}

func NewAttachment(name string, data []byte) *Attachment {
	return &Attachment{
		FileName:    name,
		ContentType: http.DetectContentType(data),
		Data:        data,
	}
}

// IsImage reports whether the sniffed content type is an image format accepted by the backend.
func (a *Attachment) IsImage() bool {
	if a == nil {
		return false
	}
	ct := strings.ToLower(a.ContentType)
	switch {
	case strings.HasPrefix(ct, "image/png"),
		strings.HasPrefix(ct, "image/jpeg"),
		strings.HasPrefix(ct, "image/gif"),
		strings.HasPrefix(ct, "image/webp"):
		return true
	}
	return false
}

// Check validates an attachment selected for the named form field.
func (a *Attachment) Check(field string) error {
	if a == nil || len(a.Data) == 0 {
		return &ValidationError{Field: field, Err: errors.New("file is required")}
	}
	if len(a.Data) > MaxAttachmentSize {
		return &ValidationError{Field: field, Err: errors.Errorf("file is larger than %d bytes", MaxAttachmentSize)}
	}
	if !a.IsImage() {
		return &ValidationError{Field: field, Err: errors.Errorf("unsupported file type %q", a.ContentType)}
	}
	return nil
}
