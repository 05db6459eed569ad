package external

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// StorageClient talks to the object storage service that holds event
// poster images.
type StorageClient struct {
	baseURL    string
	bucket     string
	accessKey  string
	httpClient *http.Client
}

type StorageConfig struct {
	BaseURL   string
	Bucket    string
	AccessKey string
	Timeout   time.Duration
}

// Image constraints enforced before any bytes leave the process.
const (
	MaxImageSize = 5 * 1024 * 1024
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

func NewStorageClient(cfg StorageConfig) *StorageClient {
	return &StorageClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		bucket:    cfg.Bucket,
		accessKey: cfg.AccessKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// ValidateImage checks content type and size before upload.
func ValidateImage(contentType string, size int64) error {
	if _, ok := allowedImageTypes[contentType]; !ok {
		return fmt.Errorf("unsupported image type %q", contentType)
	}
	if size > MaxImageSize {
		return fmt.Errorf("image exceeds %d bytes", MaxImageSize)
	}
	return nil
}

// ProgressFunc receives the fraction of bytes sent so far, in [0, 1].
type ProgressFunc func(fraction float64)

type progressReader struct {
	r        io.Reader
	total    int64
	sent     int64
	progress ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	pr.sent += int64(n)
	if pr.progress != nil && pr.total > 0 {
		pr.progress(float64(pr.sent) / float64(pr.total))
	}
	return n, err
}

// Upload stores an image under events/<eventID><ext> and returns its
// public URL. progress may be nil.
func (sc *StorageClient) Upload(ctx context.Context, eventID, contentType string, size int64, body io.Reader, progress ProgressFunc) (string, error) {
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", contentType)
	}

	objectKey := "events/" + eventID + ext
	uploadURL := fmt.Sprintf("%s/%s/%s", sc.baseURL, sc.bucket, objectKey)

	reader := &progressReader{r: body, total: size, progress: progress}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, reader)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+sc.accessKey)
	req.ContentLength = size

	resp, err := sc.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	return uploadURL, nil
}

// Delete removes a previously uploaded object by its public URL.
// A missing object is not an error; replacement uploads and event
// deletes both call this without knowing whether the asset survived.
func (sc *StorageClient) Delete(ctx context.Context, imageURL string) error {
	if imageURL == "" {
		return nil
	}

	parsed, err := url.Parse(imageURL)
	if err != nil {
		return fmt.Errorf("invalid image URL: %w", err)
	}
	objectKey := strings.TrimPrefix(parsed.Path, "/")
	if objectKey == "" || path.Clean(objectKey) != objectKey {
		return fmt.Errorf("invalid object key in URL %q", imageURL)
	}

	deleteURL := fmt.Sprintf("%s/%s", sc.baseURL, objectKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, deleteURL, bytes.NewReader(nil))
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+sc.accessKey)

	resp, err := sc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK &&
		resp.StatusCode != http.StatusNoContent &&
		resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete failed with status %d", resp.StatusCode)
	}

	return nil
}
