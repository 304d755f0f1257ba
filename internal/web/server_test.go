package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/client/api/apitest"
	"github.com/dmitrijs2005/elibrary/internal/client/models"
	"github.com/dmitrijs2005/elibrary/internal/client/storage"
	"github.com/dmitrijs2005/elibrary/internal/common"
	"github.com/dmitrijs2005/elibrary/internal/mirror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMirror struct {
	mu       sync.Mutex
	url      string
	err      error
	uploaded []byte
	book     models.Book
}

func (m *fakeMirror) DownloadURL(ctx context.Context, book models.Book) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.url + "?book=" + fmt.Sprint(book.ID), nil
}

func (m *fakeMirror) Upload(ctx context.Context, book models.Book, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploaded, m.book = data, book
	return nil
}

type harness struct {
	t      *testing.T
	fake   *apitest.Fake
	store  *storage.Store
	server *Server
	ts     *httptest.Server
	client *http.Client
}

func newHarness(t *testing.T, tweak ...func(*Options)) *harness {
	t.Helper()

	store, err := storage.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	fake := &apitest.Fake{
		Books: []models.Book{
			{ID: 1, Title: "Go dasturlash", Author: "Alan Donovan", Category: models.CategoryTextbook, PublishedDate: "2015-10-26", File: "https://library.test/media/go.pdf",
				Description: `<p>Intro <b>bold</b></p><script>alert(1)</script>`},
			{ID: 2, Title: "O'tkan kunlar", Author: "Abdulla Qodiriy", Category: models.CategoryLiterature, PublishedDate: "1926-01-01"},
			{ID: 3, Title: "Kvant fizikasi", Author: "Niels Bohr", Category: models.CategoryScientific},
		},
		News: []models.NewsItem{
			{ID: 7, Title: "Kutubxona yangiliklari", Category: models.NewsGeneral, Description: "Matn"},
			{ID: 8, Title: "Texnik ishlar", Category: models.NewsTechnical},
		},
		Popular: []models.Book{{ID: 2, Title: "O'tkan kunlar", Author: "Abdulla Qodiriy"}},
		Stats:   models.LibraryStats{TotalBooks: 3, Categories: 3, Users: 10},
		AuthURL: "https://hemis.test/oauth/authorize?x=1",
	}

	opts := Options{SecretKey: "test-secret", RateRPS: 1000, RateBurst: 1000}
	for _, f := range tweak {
		f(&opts)
	}

	srv, err := NewServer(fake, store.Repo, nil, opts)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &harness{
		t: t, fake: fake, store: store, server: srv, ts: ts,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (h *harness) do(req *http.Request) (*http.Response, string) {
	h.t.Helper()
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp, string(body)
}

func (h *harness) get(path string) (*http.Response, string) {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.ts.URL+path, nil)
	require.NoError(h.t, err)
	return h.do(req)
}

// csrf returns the token for the jar's session, opening one if needed.
func (h *harness) csrf() string {
	h.t.Helper()
	u, _ := url.Parse(h.ts.URL)
	for _, c := range h.client.Jar.Cookies(u) {
		if c.Name == sessionCookieName {
			sid, err := sessionIDFromToken(c.Value, h.server.keys.cookie)
			require.NoError(h.t, err)
			return csrfToken(h.server.keys.csrf, sid)
		}
	}
	h.get("/login")
	return h.csrf()
}

func (h *harness) post(path string, form url.Values) (*http.Response, string) {
	h.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set(csrfFormField, h.csrf())
	req, err := http.NewRequest(http.MethodPost, h.ts.URL+path, strings.NewReader(form.Encode()))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

func (h *harness) login(u models.User) {
	h.t.Helper()
	h.fake.AuthResult = models.AuthResult{Token: "tok-" + u.Username, User: u}
	h.fake.ProfileUser = u
	resp, _ := h.post("/login", url.Values{"username": {u.Username}, "password": {"secret"}})
	require.Equal(h.t, http.StatusSeeOther, resp.StatusCode)
}

var reader = models.User{ID: 5, Username: "aziz", FirstName: "Aziz", LastName: "Karimov"}
var librarian = models.User{ID: 6, Username: "admin", IsStaff: true}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	resp, body := h.get("/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}

func TestSessionCookie_IssuedOnce(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.get("/books")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Set-Cookie"))

	resp, _ = h.get("/books")
	assert.Empty(t, resp.Header.Get("Set-Cookie"), "a valid cookie is kept")
}

func TestBooks_UsesCategoryCache(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get("/books?search=go")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Go dasturlash")
	assert.NotContains(t, body, "Kvant fizikasi")

	_, body = h.get("/books?search=bohr&sort=author")
	assert.Contains(t, body, "Kvant fizikasi")

	assert.Equal(t, 1, h.fake.CallCount("ListBooks"), "search and sort reuse the fetched set")

	_, body = h.get("/books?category=Ilmiy")
	assert.Contains(t, body, "Kvant fizikasi")
	assert.NotContains(t, body, "Go dasturlash")
	assert.Equal(t, 2, h.fake.CallCount("ListBooks"))
}

func TestBooks_FetchFailureShowsNotFound(t *testing.T) {
	h := newHarness(t)
	h.fake.ListBooksErr = common.ErrUnavailable

	resp, body := h.get("/books")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "No books found.")
}

func TestCatalogJSON(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.PageSize = 2 })

	resp, body := h.get("/api/catalog?page=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got catalogResponse
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 2, got.TotalPages)
	assert.Equal(t, 3, got.TotalItems)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "O'tkan kunlar", got.Items[0].Title)
	assert.Equal(t, []int{1, 2}, got.Window)

	h.fake.ListBooksErr = common.ErrUnavailable
	_, body = h.get("/api/catalog?category=Darslik")
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.True(t, got.NotFound)
	assert.NotNil(t, got.Items)
}

func TestBook_SanitizesDescription(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get("/books/1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<b>bold</b>")
	assert.NotContains(t, body, "alert(1)")
}

func TestBook_NotFound(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.get("/books/999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = h.get("/books/abc")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHome_DegradesPerSection(t *testing.T) {
	h := newHarness(t)
	h.fake.StatsErr = common.ErrUnavailable

	resp, body := h.get("/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "O&#39;tkan kunlar", "popular books still render")
	assert.Contains(t, body, "Kutubxona yangiliklari")
	assert.NotContains(t, body, "readers")
}

func TestNews_FilterAndDetail(t *testing.T) {
	h := newHarness(t)

	_, body := h.get("/news?category=Texnik")
	assert.Contains(t, body, "Texnik ishlar")
	assert.NotContains(t, body, "Kutubxona yangiliklari")

	req, _ := http.NewRequest(http.MethodGet, h.ts.URL+"/news/7", nil)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")
	resp, body := h.do(req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Matn")

	resp, _ = h.get("/news/404")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPost_RequiresCSRF(t *testing.T) {
	h := newHarness(t)
	h.get("/login")

	req, _ := http.NewRequest(http.MethodPost, h.ts.URL+"/login", strings.NewReader("username=a&password=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, _ := h.do(req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, h.fake.CallCount("Login"))
}

func TestLoginProfileLogout(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.get("/profile")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?next=%2Fprofile", resp.Header.Get("Location"))

	h.fake.AuthResult = models.AuthResult{Token: "tok", User: reader}
	h.fake.ProfileUser = reader
	resp, _ = h.post("/login", url.Values{"username": {"aziz"}, "password": {"pw"}, "next": {"/profile"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/profile", resp.Header.Get("Location"))

	resp, body := h.get("/profile")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Aziz Karimov")
	assert.Equal(t, "tok", h.fake.Token())

	resp, _ = h.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = h.get("/profile")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestLogin_RejectsForeignRedirect(t *testing.T) {
	h := newHarness(t)
	h.fake.AuthResult = models.AuthResult{Token: "tok", User: reader}

	resp, _ := h.post("/login", url.Values{"username": {"aziz"}, "password": {"pw"}, "next": {"//evil.test/"}})
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestLogin_Failure(t *testing.T) {
	h := newHarness(t)
	h.fake.LoginErr = &common.ValidationError{Message: "Login yoki parol noto'g'ri"}

	resp, body := h.post("/login", url.Values{"username": {"aziz"}, "password": {"bad"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Login yoki parol noto&#39;g&#39;ri")
}

func TestProfile_ExpiredTokenClearsSession(t *testing.T) {
	h := newHarness(t)
	h.login(reader)
	h.fake.ProfileErr = common.ErrUnauthorized

	resp, _ := h.get("/profile")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	h.fake.ProfileErr = nil
	resp, _ = h.get("/profile")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode, "the session is gone after a 401")
}

func TestProfile_UpdateAndPassword(t *testing.T) {
	h := newHarness(t)
	h.login(reader)

	resp, body := h.post("/profile", url.Values{"first_name": {"Aziza"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Aziza Karimov")
	require.NotNil(t, h.fake.LastProfileUpd.FirstName)
	assert.Nil(t, h.fake.LastProfileUpd.Email)

	resp, body = h.post("/profile/password", url.Values{
		"old_password": {"a"}, "new_password": {"b"}, "confirm_password": {"c"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "do not match")
	assert.Zero(t, h.fake.CallCount("ChangePassword"))

	resp, _ = h.post("/profile/password", url.Values{
		"old_password": {"a"}, "new_password": {"b"}, "confirm_password": {"b"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, h.fake.CallCount("ChangePassword"))
}

func TestSSO(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.get("/login/sso?type=staff")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, h.fake.AuthURL, resp.Header.Get("Location"))
	assert.Equal(t, "staff", h.fake.LastUserType)

	resp, body := h.get("/login/callback?state=s")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Code is required")
	assert.Zero(t, h.fake.CallCount("HemisCallback"))

	h.fake.AuthResult = models.AuthResult{Token: "hemis", User: reader}
	resp, _ = h.get("/login/callback?code=abc&state=s")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "abc", h.fake.LastCode)
}

func TestFavorite(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.post("/books/1/favorite", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/login"))

	h.login(reader)

	form := url.Values{csrfFormField: {h.csrf()}}
	req, _ := http.NewRequest(http.MethodPost, h.ts.URL+"/books/1/favorite", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	resp, body := h.do(req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"favourite":true}`, body)

	_, page := h.get("/books/1")
	assert.Contains(t, page, "Remove from favourites")

	resp, _ = h.post("/books/1/favorite", nil)
	assert.Equal(t, "/books/1", resp.Header.Get("Location"))
	_, page = h.get("/books/1")
	assert.Contains(t, page, "Add to favourites")
}

func TestFavorite_FailureRestoresState(t *testing.T) {
	h := newHarness(t)
	h.login(reader)
	h.fake.ToggleErr = common.ErrUnavailable

	resp, _ := h.post("/books/1/favorite", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	_, page := h.get("/books/1")
	assert.Contains(t, page, "Add to favourites")
}

func TestDownload(t *testing.T) {
	m := &fakeMirror{url: "https://s3.test/bucket/books/1/go.pdf"}
	h := newHarness(t, func(o *Options) { o.Mirror = m })

	resp, _ := h.get("/books/1/download")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode, "login required")

	h.login(reader)
	resp, _ = h.get("/books/1/download")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://s3.test/bucket/books/1/go.pdf?book=1", resp.Header.Get("Location"))

	m.err = fmt.Errorf("presign: boom")
	resp, _ = h.get("/books/1/download")
	assert.Equal(t, "https://library.test/media/go.pdf", resp.Header.Get("Location"))

	m.err = fmt.Errorf("%w: books/1/go.pdf not mirrored", mirror.ErrNoFile)
	resp, _ = h.get("/books/1/download")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://library.test/media/go.pdf", resp.Header.Get("Location"), "not yet mirrored")

	resp, _ = h.get("/books/2/download")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "no file")
}

func TestAdmin_Access(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.get("/admin")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	h.login(reader)
	resp, _ = h.get("/admin")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdmin_Dashboard(t *testing.T) {
	h := newHarness(t)
	h.fake.Admin = models.AdminStats{TotalBooks: 3, TotalUsers: 42,
		CategoryStats: []models.CategoryCount{{Category: models.CategoryTextbook, Count: 1}}}
	h.login(librarian)

	resp, body := h.get("/admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "42")
	assert.Contains(t, body, "Darslik")
	assert.Equal(t, "tok-admin", h.fake.Token())
}

func TestAdmin_CreateBookInvalidatesCacheAndMirrors(t *testing.T) {
	m := &fakeMirror{}
	h := newHarness(t, func(o *Options) { o.Mirror = m })
	h.login(librarian)

	h.get("/books")
	require.Equal(t, 1, h.fake.CallCount("ListBooks"))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		csrfFormField: h.csrf(), "title": "Yangi kitob", "author": "Muallif",
		"category": string(models.CategoryScientific), "resource_type": string(models.ResourceBook),
		"page_count": "120", "published_date": "2024-05-01",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", "yangi.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.7 body"))
	require.NoError(t, mw.Close())

	req, _ := http.NewRequest(http.MethodPost, h.ts.URL+"/admin/books", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, _ := h.do(req)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/books", resp.Header.Get("Location"))

	assert.Equal(t, "Yangi kitob", h.fake.LastBookInput.Title)
	assert.Equal(t, 120, h.fake.LastBookInput.PageCount)
	require.NotNil(t, h.fake.LastBookInput.File)
	assert.Equal(t, "yangi.pdf", h.fake.LastBookInput.File.Filename)

	assert.Equal(t, []byte("%PDF-1.7 body"), m.uploaded)
	assert.Equal(t, "Yangi kitob", m.book.Title)

	_, body := h.get("/books?search=yangi")
	assert.Contains(t, body, "Yangi kitob")
	assert.Equal(t, 2, h.fake.CallCount("ListBooks"), "saving drops the cached set")
}

func TestAdmin_CreateBookValidation(t *testing.T) {
	h := newHarness(t)
	h.login(librarian)

	resp, body := h.post("/admin/books", url.Values{"title": {"X"}, "author": {"Y"}, "category": {"Barchasi"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Choose a category.")
	assert.Zero(t, h.fake.CallCount("CreateBook"))

	resp, _ = h.post("/admin/books", url.Values{"title": {"X"}, "author": {"Y"}, "category": {"Ilmiy"}, "page_count": {"-3"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdmin_DeleteAndNews(t *testing.T) {
	h := newHarness(t)
	h.login(librarian)

	resp, _ := h.post("/admin/books/3/delete", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, int64(3), h.fake.LastDeletedID)

	h.fake.DeleteNewsErr = common.ErrForbidden
	resp, _ = h.post("/admin/news/7/delete", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = h.post("/admin/news", url.Values{"title": {"E'lon"}, "description": {"Matn"}, "category": {"E'lon"}, "date": {"2024-09-01"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, models.NewsAnnouncement, h.fake.LastNewsInput.Category)

	resp, _ = h.post("/admin/news/8", url.Values{"title": {"T"}, "description": {"D"}, "date": {"01.09.2024"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdmin_UpdateBookURLEncoded(t *testing.T) {
	h := newHarness(t)
	h.login(librarian)

	resp, _ := h.post("/admin/books/2", url.Values{"title": {"O'tkan kunlar"}, "author": {"Abdulla Qodiriy"}, "category": {"Adabiyotlar"}, "page_count": {"412"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 412, h.fake.LastBookInput.PageCount)
	assert.Nil(t, h.fake.LastBookInput.File, "no file field without multipart encoding")
}

func TestAdmin_Users(t *testing.T) {
	h := newHarness(t)
	h.fake.Users = []models.User{reader, librarian}
	h.login(librarian)

	resp, body := h.get("/admin/users?search=az")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "az", h.fake.LastSearch)
	assert.Contains(t, body, "Aziz Karimov")
}

func TestRateLimit(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.RateRPS = 0.001; o.RateBurst = 2 })

	for i := 0; i < 2; i++ {
		resp, _ := h.get("/news")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := h.get("/news")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	resp, _ = h.get("/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health checks are not limited")
}

func TestRateLimit_IgnoresForwardedForByDefault(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.RateRPS = 0.001; o.RateBurst = 2 })

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req, err := http.NewRequest(http.MethodGet, h.ts.URL+"/news", nil)
		require.NoError(t, err)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		resp, _ := h.do(req)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, 429, 429}, codes)
}

func TestRateLimit_TrustedProxy(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.RateRPS = 0.001; o.RateBurst = 1; o.TrustProxy = true })

	for i := 0; i < 3; i++ {
		req, err := http.NewRequest(http.MethodGet, h.ts.URL+"/news", nil)
		require.NoError(t, err)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		resp, _ := h.do(req)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "each forwarded client has its own bucket")
	}

	req, err := http.NewRequest(http.MethodGet, h.ts.URL+"/news", nil)
	require.NoError(t, err)
	req.Header.Set("X-Forwarded-For", "203.0.113.1")
	resp, _ := h.do(req)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestPurgeSessions(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.SessionTTL = time.Hour })
	h.login(reader)

	n, err := h.server.PurgeSessions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "a fresh session survives")
}
