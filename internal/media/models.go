package media

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies how a player renders an asset.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindHTML  Kind = "html"
)

func (k Kind) Valid() bool {
	switch k {
	case KindImage, KindVideo, KindHTML:
		return true
	}
	return false
}

type Media struct {
	ID          uuid.UUID  `json:"id"`
	GroupID     *uuid.UUID `json:"groupId,omitempty"`
	Name        string     `json:"name"`
	Kind        Kind       `json:"kind"`
	Duration    int        `json:"duration"`
	MimeType    string     `json:"mimeType,omitempty"`
	FilePath    string     `json:"-"`
	DownloadURL string     `json:"downloadUrl,omitempty"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
