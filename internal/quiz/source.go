package quiz

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Source yields a raw quiz document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	// Key identifies the document for caching.
	Key() string
}

// NewSource picks an HTTP source for http(s) URLs and a file source otherwise.
func NewSource(location string, timeout time.Duration) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, &http.Client{Timeout: timeout})
	}
	return NewFileSource(location)
}

// FileSource reads the quiz document from disk.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Key() string { return "file:" + s.path }

func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read quiz file: %w", err)
	}
	return data, nil
}

// HTTPSource fetches the quiz document from a URL.
type HTTPSource struct {
	url        string
	httpClient *http.Client
}

func NewHTTPSource(url string, httpClient *http.Client) *HTTPSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPSource{url: url, httpClient: httpClient}
}

func (s *HTTPSource) Key() string { return "url:" + s.url }

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("quiz source non-2xx: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
