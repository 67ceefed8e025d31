package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// ArchiveName is the name the resize archive is offered under.
const ArchiveName = "resized_images.zip"

// Upload is one file sent to /resize.
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Archive is the ZIP returned by a successful /resize call.
type Archive struct {
	Name        string
	ContentType string
	Data        []byte
}

// Entries lists the files inside the archive, in archive order.
func (a *Archive) Entries() ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(a.Data), int64(len(a.Data)))
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names, nil
}

// Resize submits uploads as one batch. When folders is non-nil it must have
// one entry per upload; it is sent as a JSON array under both "base_names"
// and "main_folder". A single attempt is made.
func (c *Client) Resize(ctx context.Context, uploads []Upload, folders []string) (*Archive, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("no files to resize")
	}
	if folders != nil && len(folders) != len(uploads) {
		return nil, fmt.Errorf("got %d folder names for %d files", len(folders), len(uploads))
	}

	body, contentType, err := encodeResizeForm(uploads, folders)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.env.Endpoint(pathResize), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, readError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading archive: %w", ErrUnavailable, err)
	}
	return &Archive{Name: ArchiveName, ContentType: contentTypeOf(resp.Header), Data: data}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeResizeForm(uploads []Upload, folders []string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, u := range uploads {
		// CreateFormFile would label every part application/octet-stream,
		// and the backend accepts only image/png and image/jpeg parts.
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(u.Name)))
		ct := u.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("creating part for %s: %w", u.Name, err)
		}
		if _, err := io.Copy(part, u.Body); err != nil {
			return nil, "", fmt.Errorf("writing %s: %w", u.Name, err)
		}
	}

	if folders != nil {
		names, err := json.Marshal(folders)
		if err != nil {
			return nil, "", fmt.Errorf("marshalling folder names: %w", err)
		}
		for _, field := range []string{"base_names", "main_folder"} {
			if err := w.WriteField(field, string(names)); err != nil {
				return nil, "", fmt.Errorf("writing %s: %w", field, err)
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
