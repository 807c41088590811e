package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
)

// Upload is a binary payload sent as multipart/form-data.
type Upload struct {
	// Field is the form field name; defaults to "file".
	Field string
	// Filename is reported to the server in Content-Disposition.
	Filename string
	// ContentType of the file part; defaults to application/octet-stream.
	ContentType string
	// Content is read fully before the request is sent.
	Content io.Reader
	// Fields are extra plain form values.
	Fields map[string]string
}

// Upload posts u to path as multipart form data and classifies the outcome
// exactly like Do.
func (c *Client) Upload(ctx context.Context, path string, u Upload) (Envelope, error) {
	if u.Content == nil {
		return nil, errors.New("transport: upload content is required")
	}
	body, contentType, err := encodeMultipart(u)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, Request{Method: http.MethodPost, Path: path}, body, contentType)
}

func encodeMultipart(u Upload) (*bytes.Buffer, string, error) {
	field := u.Field
	if field == "" {
		field = "file"
	}
	filename := u.Filename
	if filename == "" {
		filename = "upload"
	}
	ctype := u.ContentType
	if ctype == "" {
		ctype = "application/octet-stream"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	// Stable ordering keeps request bodies reproducible.
	keys := make([]string, 0, len(u.Fields))
	for k := range u.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, u.Fields[k]); err != nil {
			return nil, "", fmt.Errorf("transport: write form field %q: %w", k, err)
		}
	}

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	hdr.Set("Content-Type", ctype)
	part, err := w.CreatePart(hdr)
	if err != nil {
		return nil, "", fmt.Errorf("transport: create file part: %w", err)
	}
	if _, err := io.Copy(part, u.Content); err != nil {
		return nil, "", fmt.Errorf("transport: read upload content: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("transport: finish multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
