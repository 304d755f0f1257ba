package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/elibrary/internal/client/models"
)

type formWriter struct {
	buf bytes.Buffer
	mw  *multipart.Writer
	err error
}

func newFormWriter() *formWriter {
	f := &formWriter{}
	f.mw = multipart.NewWriter(&f.buf)
	return f
}

func (f *formWriter) field(name, value string) {
	if f.err != nil {
		return
	}
	f.err = f.mw.WriteField(name, value)
}

// optional writes the field only when value is non-empty.
func (f *formWriter) optional(name, value string) {
	if strings.TrimSpace(value) != "" {
		f.field(name, value)
	}
}

func (f *formWriter) file(name string, up *models.Upload) {
	if f.err != nil || up == nil || up.Body == nil {
		return
	}
	ct := up.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, name, up.Filename))
	h.Set("Content-Type", ct)

	w, err := f.mw.CreatePart(h)
	if err != nil {
		f.err = err
		return
	}
	_, f.err = io.Copy(w, up.Body)
}

func (f *formWriter) finish() (*bytes.Buffer, string, error) {
	if f.err != nil {
		return nil, "", fmt.Errorf("build form: %w", f.err)
	}
	if err := f.mw.Close(); err != nil {
		return nil, "", fmt.Errorf("build form: %w", err)
	}
	return &f.buf, f.mw.FormDataContentType(), nil
}

func bookForm(in models.BookInput) (*bytes.Buffer, string, error) {
	f := newFormWriter()
	f.field("title", in.Title)
	f.field("author", in.Author)
	f.field("description", in.Description)
	f.optional("category", string(in.Category))
	f.optional("resource_type", string(in.ResourceType))
	f.field("page_count", strconv.Itoa(in.PageCount))
	f.optional("published_date", in.PublishedDate)
	f.field("subjects", in.Subjects)
	f.file("cover_image", in.CoverImage)
	f.file("qr_code", in.QRCode)
	f.file("file", in.File)
	return f.finish()
}

func newsForm(in models.NewsInput) (*bytes.Buffer, string, error) {
	f := newFormWriter()
	f.field("title", in.Title)
	f.field("description", in.Description)
	f.optional("date", in.Date)
	f.optional("category", string(in.Category))
	f.optional("author", in.Author)
	f.file("image", in.Image)
	return f.finish()
}
