package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_IsAll(t *testing.T) {
	assert.True(t, Category("").IsAll())
	assert.True(t, Category(" barchasi ").IsAll())
	assert.True(t, CategoryAll.IsAll())
	assert.False(t, CategoryTextbook.IsAll())
}

func TestBook_Published(t *testing.T) {
	tests := []struct {
		name string
		date string
		want time.Time
		year int
	}{
		{name: "set", date: "2019-05-01", want: time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC), year: 2019},
		{name: "missing is epoch", date: "", want: time.Unix(0, 0).UTC(), year: 0},
		{name: "malformed is epoch", date: "2019", want: time.Unix(0, 0).UTC(), year: 1970},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Book{PublishedDate: tt.date}
			assert.True(t, tt.want.Equal(b.Published()))
			assert.Equal(t, tt.year, b.Year())
		})
	}
}

func TestBook_SubjectList(t *testing.T) {
	b := Book{Subjects: "Tarix, Roman,, Klassika "}
	assert.Equal(t, []string{"Tarix", "Roman", "Klassika"}, b.SubjectList())
}

func TestBook_DecodesBackendPayload(t *testing.T) {
	payload := `{
		"id": 7, "title": "O'tkan kunlar", "author": "Abdulla Qodiriy",
		"description": "<p>Roman</p>", "category": "Adabiyotlar", "resource_type": "Kitob",
		"page_count": 412, "published_date": null, "subjects": "Roman",
		"cover_image": "/media/books/covers/a.jpg", "qr_code": null, "file": null,
		"created_at": "2024-03-01T10:15:30.123456+05:00"
	}`

	var b Book
	require.NoError(t, json.Unmarshal([]byte(payload), &b))

	want := Book{
		ID: 7, Title: "O'tkan kunlar", Author: "Abdulla Qodiriy", Description: "<p>Roman</p>",
		Category: CategoryLiterature, ResourceType: ResourceBook, PageCount: 412,
		Subjects: "Roman", CoverImage: "/media/books/covers/a.jpg",
	}
	assert.Equal(t, 2024, b.CreatedAt.Year())
	b.CreatedAt = time.Time{}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Fatalf("book mismatch (-want +got):\n%s", diff)
	}
}

func TestUser_ToggleFavourite(t *testing.T) {
	u := User{Favourites: []FavouriteRef{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}}

	list, added := u.ToggleFavourite(Book{ID: 3, Title: "C", Author: "X", CoverImage: "/c.jpg"})
	assert.True(t, added)
	assert.Equal(t, []FavouriteRef{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}, {ID: 3, Title: "C", Author: "X", CoverURL: "/c.jpg"}}, list)

	list, added = u.ToggleFavourite(Book{ID: 1})
	assert.False(t, added)
	assert.Equal(t, []FavouriteRef{{ID: 2, Title: "B"}}, list)

	assert.Len(t, u.Favourites, 2, "original list must not change")
}

func TestUser_Helpers(t *testing.T) {
	u := User{Username: "aziz", FirstName: "Aziz", LastName: "Karimov", IsStaff: true,
		Favourites: []FavouriteRef{{ID: 4}}}
	assert.Equal(t, "Aziz Karimov", u.DisplayName())
	assert.True(t, u.IsAdmin())
	assert.True(t, u.HasFavourite(4))
	assert.False(t, u.HasFavourite(5))

	assert.Equal(t, "bob", User{Username: "bob"}.DisplayName())
	assert.False(t, User{}.IsAdmin())
}
