// Package storage uploads task attachments to a third-party file host that
// accepts unsigned multipart uploads and answers with the stored file's URL.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/yukikurage/taskboard-api/internal/config"
	"github.com/yukikurage/taskboard-api/internal/logging"
	"golang.org/x/sync/errgroup"
)

// ErrNotConfigured is returned by New when no upload endpoint is set.
var ErrNotConfigured = errors.New("storage: upload endpoint not configured")

// File is one attachment to upload.
type File struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Client uploads files through a circuit breaker.
type Client struct {
	endpoint    string
	preset      string
	parallelism int
	http        *http.Client
	breaker     *gobreaker.CircuitBreaker
}

// New returns a Client for cfg. httpClient may be nil.
func New(cfg config.StorageConfig, httpClient *http.Client) (*Client, error) {
	if cfg.UploadURL == "" {
		return nil, ErrNotConfigured
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	parallelism := cfg.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	return &Client{
		endpoint:    cfg.UploadURL,
		preset:      cfg.Preset,
		parallelism: parallelism,
		http:        httpClient,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "storage-upload",
			MaxRequests: 1,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Logger.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("circuit breaker state changed")
			},
		}),
	}, nil
}

// UploadAll uploads every file, at most parallelism at a time, and returns
// the URLs in the order of files. All files are attempted; if any fail the
// per-file errors are joined and no URLs are returned.
func (c *Client) UploadAll(ctx context.Context, files []File) ([]string, error) {
	urls := make([]string, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(c.parallelism)
	for i, f := range files {
		g.Go(func() error {
			url, err := c.Upload(ctx, f)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", f.Name, err)
				return nil
			}
			urls[i] = url
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return urls, nil
}

// Upload sends one file and returns its URL.
func (c *Client) Upload(ctx context.Context, f File) (string, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.upload(ctx, f)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
}

func (c *Client) upload(ctx context.Context, f File) (string, error) {
	src, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer src.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", f.Name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, src); err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if c.preset != "" {
		if err := form.WriteField("upload_preset", c.preset); err != nil {
			return "", err
		}
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload rejected with status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if out.SecureURL != "" {
		return out.SecureURL, nil
	}
	if out.URL != "" {
		return out.URL, nil
	}
	return "", errors.New("upload response has no url")
}
