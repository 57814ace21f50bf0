package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rrRunerra/Lynx-sub000/internal/storage"

	"go.uber.org/zap"
)

// archiveAttachments downloads every attachment of one message concurrently
// and fans back in before the caller moves to the next message. A failed
// download marks that attachment with an error instead of failing the
// message.
func (e *ClearEngine) archiveAttachments(ctx context.Context, dir, messageID string, attachments []RemoteAttachment) []storage.Attachment {
	if len(attachments) == 0 {
		return nil
	}

	out := make([]storage.Attachment, len(attachments))
	var wg sync.WaitGroup
	for i, att := range attachments {
		wg.Add(1)
		go func(i int, att RemoteAttachment) {
			defer wg.Done()
			snapshot := storage.Attachment{
				Name:        att.Name,
				RemoteURL:   att.URL,
				ContentType: att.ContentType,
			}
			dest := filepath.Join(dir, fmt.Sprintf("%s_%d_%s", messageID, i, sanitizeName(att.Name)))
			contentType, err := e.files.Download(ctx, att.URL, dest)
			if err != nil {
				snapshot.Error = err.Error()
				e.logger.Warn("attachment download failed",
					zap.String("message_id", messageID),
					zap.String("name", att.Name),
					zap.Error(err),
				)
			} else {
				snapshot.LocalPath = dest
				if snapshot.ContentType == "" {
					snapshot.ContentType = contentType
				}
			}
			out[i] = snapshot
		}(i, att)
	}
	wg.Wait()
	return out
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." {
		return "attachment"
	}
	return name
}

// HTTPDownloader fetches attachment content over plain HTTP.
type HTTPDownloader struct {
	client *http.Client
}

func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{client: &http.Client{Timeout: 30 * time.Second}}
}

func (d *HTTPDownloader) Download(ctx context.Context, url, dest string) (string, error) {
	body, contentType, err := d.Open(ctx, url)
	if err != nil {
		return "", err
	}
	defer body.Close()

	file, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(file, body); err != nil {
		_ = file.Close()
		_ = os.Remove(dest)
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	return contentType, nil
}

func (d *HTTPDownloader) Open(ctx context.Context, url string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}
