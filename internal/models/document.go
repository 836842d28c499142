package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DocumentFormat is the declared format of an uploaded résumé.
type DocumentFormat string

const (
	FormatPDF     DocumentFormat = "pdf"
	FormatDOC     DocumentFormat = "doc"
	FormatDOCX    DocumentFormat = "docx"
	FormatUnknown DocumentFormat = ""
)

// FormatFromFilename derives the declared format from a file extension.
func FormatFromFilename(name string) DocumentFormat {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "pdf":
		return FormatPDF
	case "doc":
		return FormatDOC
	case "docx":
		return FormatDOCX
	default:
		return FormatUnknown
	}
}

// Document is a stored résumé file owned by the candidate intake flow.
type Document struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Filename         string         `gorm:"type:text" json:"filename"`
	OriginalFileName string         `gorm:"type:text" json:"original_filename"`
	Format           DocumentFormat `gorm:"type:text" json:"format"`
	FilePath         string         `gorm:"type:text" json:"file_path"`
	CreatedAt        time.Time      `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (d *Document) TableName() string {
	return "documents"
}
