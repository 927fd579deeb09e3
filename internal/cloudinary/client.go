package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wanderlust/internal/observability"
)

const DefaultBaseURL = "https://api.cloudinary.com/v1_1"

// UploadRequest is one image to store.
type UploadRequest struct {
	Data     []byte
	Filename string
	Folder   string
	PublicID string
}

// UploadResult is the subset of Cloudinary's upload response we use.
type UploadResult struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int64  `json:"bytes"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client performs server-side signed uploads.
type Client struct {
	creds   Credentials
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// NewClient returns a client for creds. An empty baseURL uses DefaultBaseURL.
func NewClient(creds Credentials, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		creds:   creds,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		now:     time.Now,
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.creds.Configured()
}

// CloudName is the configured account name.
func (c *Client) CloudName() string {
	return c.creds.CloudName
}

func (c *Client) Upload(ctx context.Context, req UploadRequest) (res *UploadResult, err error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	ctx, span := observability.StartClientSpan(ctx, "cloudinary", "upload")
	defer func() { observability.EndSpan(span, err) }()

	params := map[string]string{
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
		"folder":    req.Folder,
		"public_id": req.PublicID,
	}
	params["signature"] = Sign(params, c.creds.APISecret)
	params["api_key"] = c.creds.APIKey

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range params {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	filename := req.Filename
	if filename == "" {
		filename = "upload"
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(req.Data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", c.baseURL, c.creds.CloudName)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("cloudinary upload: %s (status %d)", apiErr.Error.Message, resp.StatusCode)
		}
		return nil, fmt.Errorf("cloudinary upload: unexpected status %d", resp.StatusCode)
	}

	var out UploadResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("cloudinary upload: decode response: %w", err)
	}
	return &out, nil
}
