package gateway

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// methodOverrideField instructs backends that cannot parse multipart
// PUT bodies to treat the POST as a PUT.
const methodOverrideField = "_method"

// File is a file attachment for a multipart request.
type File struct {
	Field       string // form field name, e.g. "image"
	Name        string // filename sent to the backend
	ContentType string
	Content     []byte
}

// Form is a multipart form body: string fields plus file attachments.
type Form struct {
	fields [][2]string
	files  []File
}

// NewForm creates an empty multipart form.
func NewForm() *Form {
	return &Form{}
}

// Set adds a string field.
func (f *Form) Set(key, value string) *Form {
	f.fields = append(f.fields, [2]string{key, value})
	return f
}

// AddFile adds a file attachment.
func (f *Form) AddFile(file File) *Form {
	f.files = append(f.files, file)
	return f
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encode writes the form into a multipart body and returns it with
// the writer-generated content type. The boundary must come from the
// writer, never be set by hand.
func (f *Form) encode() (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for _, field := range f.fields {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return nil, "", fmt.Errorf("write form field %q: %w", field[0], err)
		}
	}

	for _, file := range f.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(file.Field), quoteEscaper.Replace(file.Name)))
		if file.ContentType != "" {
			h.Set("Content-Type", file.ContentType)
		}
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create form file %q: %w", file.Field, err)
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", fmt.Errorf("write form file %q: %w", file.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return body, w.FormDataContentType(), nil
}
