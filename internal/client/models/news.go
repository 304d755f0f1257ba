package models

type NewsCategory string

const (
	NewsGeneral      NewsCategory = "Yangilik"
	NewsAnnouncement NewsCategory = "E'lon"
	NewsEvent        NewsCategory = "Tadbir"
	NewsNew          NewsCategory = "Yangi"
	NewsTechnical    NewsCategory = "Texnik"
	NewsService      NewsCategory = "Xizmat"
)

var NewsCategories = []NewsCategory{
	NewsGeneral, NewsAnnouncement, NewsEvent, NewsNew, NewsTechnical, NewsService,
}

type NewsItem struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Image       string       `json:"image,omitempty"`
	Date        string       `json:"date"`
	Category    NewsCategory `json:"category"`
	Author      string       `json:"author"`
}

type NewsInput struct {
	Title       string
	Description string
	Date        string
	Category    NewsCategory
	Author      string

	Image *Upload
}
