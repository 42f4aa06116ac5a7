package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"market-api/internal/domains/upload"
	"market-api/internal/shared/response"
)

// APIClient gọi /api/s3/* của market-api bằng bearer token,
// rồi PUT thẳng nội dung lên URL đã ký
type APIClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// APIError là response lỗi {error} từ API hoặc status không phải 2xx từ object store
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// NewAPIClient; httpClient nil -> client mặc định không có timeout tổng
// (file lớn có thể mất lâu, hủy bằng ctx)
func NewAPIClient(baseURL, token string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: 30 * time.Second,
			MaxIdleConnsPerHost:   DefaultWorkers * 2,
		}}
	}
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

func (c *APIClient) Presign(ctx context.Context, filename, contentType string, size int64) (*Presigned, error) {
	var res upload.PresignResponse
	err := c.postJSON(ctx, "/api/s3/presign", upload.PresignRequest{
		Filename:    filename,
		ContentType: contentType,
		Size:        &size,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &Presigned{URL: res.URL, Key: res.Key}, nil
}

func (c *APIClient) ViewURL(ctx context.Context, key string) (string, error) {
	var res upload.URLResponse
	if err := c.postJSON(ctx, "/api/s3/view-url", upload.KeyRequest{Key: key}, &res); err != nil {
		return "", err
	}
	return res.URL, nil
}

// Put gửi body lên URL đã ký; Content-Type phải trùng với lúc presign
func (c *APIClient) Put(ctx context.Context, url, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(snippet))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *APIClient) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var body response.ErrorBody
		if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err != nil || body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: body.Error}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
