package models

import "io"

type LibraryStats struct {
	TotalBooks int `json:"totalBooks"`
	Categories int `json:"categories"`
	Users      int `json:"users"`
	NewBooks   int `json:"newBooks"`
}

type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

type AdminStats struct {
	TotalBooks    int             `json:"totalBooks"`
	TotalUsers    int             `json:"totalUsers"`
	NewUsersToday int             `json:"newUsersToday"`
	CategoryStats []CategoryCount `json:"categoryStats"`
}

// Upload is a file attached to a multipart admin form.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}
