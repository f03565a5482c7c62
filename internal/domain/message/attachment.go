package message

import (
	"github.com/atiendo/atiendo/internal/domain/errs"
)

// Attachment describes a file carried by a message. The file itself is
// stored externally; only the reference travels with the message.
type Attachment struct {
	URL      string `json:"url"       bson:"url"`
	FileName string `json:"file_name" bson:"file_name"`
	FileSize int64  `json:"file_size" bson:"file_size"`
	MimeType string `json:"mime_type" bson:"mime_type"`
}

// Validate checks the attachment reference is complete.
func (a Attachment) Validate() error {
	if a.URL == "" {
		return errs.ErrInvalidInput
	}
	if a.FileName == "" {
		return errs.ErrInvalidInput
	}
	if a.FileSize <= 0 {
		return errs.ErrInvalidInput
	}
	if a.MimeType == "" {
		return errs.ErrInvalidInput
	}
	return nil
}
