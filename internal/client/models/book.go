// Package models defines the library data types exchanged with the remote
// catalog service and kept in local storage.
package models

import (
	"strings"
	"time"
)

// Category is the backend book category enum.
type Category string

const (
	CategoryLiterature Category = "Adabiyotlar"
	CategoryTextbook   Category = "Darslik"
	CategoryScientific Category = "Ilmiy"
	// CategoryAll doubles as the "no category filter" selector.
	CategoryAll Category = "Barchasi"
)

// Categories lists the selectable categories in display order.
var Categories = []Category{CategoryAll, CategoryLiterature, CategoryTextbook, CategoryScientific}

// IsAll reports whether c selects the whole catalog.
func (c Category) IsAll() bool {
	s := strings.TrimSpace(string(c))
	return s == "" || strings.EqualFold(s, string(CategoryAll))
}

type ResourceType string

const (
	ResourceBook         ResourceType = "Kitob"
	ResourceAbstract     ResourceType = "Avtoreferat"
	ResourceMonograph    ResourceType = "Monografiya"
	ResourceStudyGuide   ResourceType = "O'quv qo'llanma"
	ResourceArticle      ResourceType = "Maqola"
	ResourceDissertation ResourceType = "Dissertatsiya"
)

var ResourceTypes = []ResourceType{
	ResourceBook, ResourceAbstract, ResourceMonograph,
	ResourceStudyGuide, ResourceArticle, ResourceDissertation,
}

// DateLayout is the wire format of published dates.
const DateLayout = "2006-01-02"

// Book is a catalog record as served by /api/books/.
type Book struct {
	ID            int64        `json:"id"`
	Title         string       `json:"title"`
	Author        string       `json:"author"`
	Description   string       `json:"description"`
	Category      Category     `json:"category"`
	ResourceType  ResourceType `json:"resource_type"`
	PageCount     int          `json:"page_count"`
	PublishedDate string       `json:"published_date,omitempty"`
	Subjects      string       `json:"subjects"`
	CoverImage    string       `json:"cover_image,omitempty"`
	QRCode        string       `json:"qr_code,omitempty"`
	File          string       `json:"file,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Published parses PublishedDate. Missing or malformed dates are the Unix epoch.
func (b Book) Published() time.Time {
	if b.PublishedDate == "" {
		return time.Unix(0, 0).UTC()
	}
	t, err := time.Parse(DateLayout, b.PublishedDate)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t
}

// Year returns the publication year, or 0 when unknown.
func (b Book) Year() int {
	if b.PublishedDate == "" {
		return 0
	}
	return b.Published().Year()
}

// SubjectList splits the comma separated subjects field.
func (b Book) SubjectList() []string {
	parts := strings.Split(b.Subjects, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// BookInput carries the editable fields of the admin book form.
type BookInput struct {
	Title         string
	Author        string
	Description   string
	Category      Category
	ResourceType  ResourceType
	PageCount     int
	PublishedDate string
	Subjects      string

	CoverImage *Upload
	QRCode     *Upload
	File       *Upload
}
