package brand

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// ClientOptions configures the remote classifier client.
type ClientOptions struct {
	// URL is the inference endpoint accepting a multipart image upload.
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultClientOptions returns client defaults; the URL is deployment-specific.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{Timeout: 10 * time.Second}
}

// Client calls the remote brand-classification service.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a classifier client.
func NewClient(opts ClientOptions) *Client {
	return &Client{
		url:  opts.URL,
		http: &http.Client{Timeout: opts.Timeout},
	}
}

// Predict uploads the image and returns the service's brand predictions.
func (c *Client) Predict(ctx context.Context, imageData []byte) ([]Prediction, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "scan.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(imageData)); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier responded with status %d", resp.StatusCode)
	}

	var result struct {
		Predictions []Prediction `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result.Predictions, nil
}
