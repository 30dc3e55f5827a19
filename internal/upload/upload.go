// Package upload pushes local files to the media host and hands back the
// public URL the chat messages reference.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/vinhng/zolaterm/internal/model"
)

// Uploader transfers files to the media host. Stateless; the size cap is
// the only policy it enforces.
type Uploader struct {
	URL     string
	MaxSize int64

	httpClient *http.Client
}

func New(url string, maxSize int64) *Uploader {
	return &Uploader{
		URL:     url,
		MaxSize: maxSize,
		// Uploads are slow on mobile networks; the REST timeout would be
		// too tight here.
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// File uploads the file at path. The size cap is checked before any
// network traffic; an oversized file never leaves the machine.
func (u *Uploader) File(ctx context.Context, path string) (*model.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("upload: %s is a directory", path)
	}
	if u.MaxSize > 0 && info.Size() > u.MaxSize {
		return nil, fmt.Errorf("upload: file exceeds the %d MB limit", u.MaxSize>>20)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("upload: read %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.URL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upload: media host returned status %d", resp.StatusCode)
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("upload: decode response: %w", err)
	}

	return &model.Attachment{
		URL:  result.URL,
		Type: contentType,
		Name: name,
		Size: info.Size(),
	}, nil
}
