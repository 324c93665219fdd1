package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/printforge/proofroom-backend/pkg/config"
	pkgerrors "github.com/printforge/proofroom-backend/pkg/errors"
	"github.com/printforge/proofroom-backend/pkg/logger"
)

const (
	uploadResourceType  = "auto"
	destroyResourceType = "image"
	pingTimeout         = 5 * time.Second
)

// Client talks to the Cloudinary upload API over plain HTTP.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	cloudName    string
	uploadPreset string
	apiKey       string
	apiSecret    string
	now          func() time.Time
}

// UploadInput describes one file to push to the media store.
type UploadInput struct {
	FileName string
	Body     io.Reader
	Size     int64
	Folder   string
	Context  map[string]string
	Tags     []string
	// OnProgress receives monotonically increasing byte counts as the
	// request body is consumed. Total is Size when known, otherwise 0.
	OnProgress func(sent, total int64)
}

// UploadResult is the subset of the Cloudinary response the service needs.
type UploadResult struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Bytes     int64  `json:"bytes"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// NewClient validates the media store configuration and returns a client.
func NewClient(ctx context.Context, cfg config.MediaStoreConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.CloudName) == "" {
		return nil, errors.New("media store cloud name is required")
	}
	if strings.TrimSpace(cfg.UploadPreset) == "" {
		return nil, errors.New("media store upload preset is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	client := &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		cloudName:    cfg.CloudName,
		uploadPreset: cfg.UploadPreset,
		apiKey:       cfg.APIKey,
		apiSecret:    cfg.APISecret,
		now:          time.Now,
	}

	if logg != nil {
		logg.Info(ctx, "media store client initialized")
	}

	return client, nil
}

// Upload streams the file to the unsigned upload endpoint. The request body is
// produced through a pipe so large print files never buffer fully in memory.
func (c *Client) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	if c == nil || c.httpClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "media store client not initialized")
	}
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "upload body is required")
	}

	counted := newProgressReader(input.Body, input.Size, input.OnProgress)

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		err := writeUploadForm(form, c.uploadPreset, input, counted)
		if closeErr := form.Close(); err == nil {
			err = closeErr
		}
		pw.CloseWithError(err)
	}()

	endpoint := fmt.Sprintf("%s/%s/%s/upload", c.baseURL, url.PathEscape(c.cloudName), uploadResourceType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building upload request")
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeCancelled, err, "upload cancelled")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "media store request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		msg := fmt.Sprintf("media store upload returned %s", resp.Status)
		if len(body) > 0 {
			msg = fmt.Sprintf("%s: %s", msg, strings.TrimSpace(string(body)))
		}
		return nil, pkgerrors.New(pkgerrors.CodeDependency, msg)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding upload response")
	}
	if result.PublicID == "" || result.SecureURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "upload response missing public id or url")
	}

	counted.finish()
	return &result, nil
}

func writeUploadForm(form *multipart.Writer, preset string, input UploadInput, body io.Reader) error {
	if err := form.WriteField("upload_preset", preset); err != nil {
		return err
	}
	if input.Folder != "" {
		if err := form.WriteField("folder", input.Folder); err != nil {
			return err
		}
	}
	if len(input.Tags) > 0 {
		if err := form.WriteField("tags", strings.Join(input.Tags, ",")); err != nil {
			return err
		}
	}
	if encoded := encodeContext(input.Context); encoded != "" {
		if err := form.WriteField("context", encoded); err != nil {
			return err
		}
	}

	name := input.FileName
	if name == "" {
		name = "upload"
	}
	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, body)
	return err
}

// encodeContext renders metadata as the pipe-delimited key=value list the
// upload API expects. Keys are sorted so the payload is deterministic.
func encodeContext(values map[string]string) string {
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+values[key])
	}
	return strings.Join(pairs, "|")
}

// Destroy removes an object by public id using a signed request. A missing
// object is treated as already destroyed.
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	if c == nil || c.httpClient == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "media store client not initialized")
	}
	if strings.TrimSpace(publicID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "public id is required")
	}
	if c.apiKey == "" || c.apiSecret == "" {
		return pkgerrors.New(pkgerrors.CodeInternal, "media store api credentials are required for destroy")
	}

	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	form := url.Values{}
	form.Set("public_id", publicID)
	form.Set("timestamp", timestamp)
	form.Set("api_key", c.apiKey)
	form.Set("signature", c.sign(fmt.Sprintf("public_id=%s&timestamp=%s", publicID, timestamp)))

	endpoint := fmt.Sprintf("%s/%s/%s/destroy", c.baseURL, url.PathEscape(c.cloudName), destroyResourceType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building destroy request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			return pkgerrors.Wrap(pkgerrors.CodeCancelled, err, "destroy cancelled")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "media store request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("media store destroy returned %s: %s", resp.Status, strings.TrimSpace(string(body))))
	}

	var result struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding destroy response")
	}
	if result.Result != "ok" && result.Result != "not found" {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("media store destroy result %q", result.Result))
	}
	return nil
}

func (c *Client) sign(payload string) string {
	sum := sha1.Sum([]byte(payload + c.apiSecret))
	return hex.EncodeToString(sum[:])
}

// Ping issues a HEAD request against the upload endpoint to verify the host
// is reachable. Cloudinary answers uploads only, so any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.httpClient == nil {
		return errors.New("media store client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s/%s/upload", c.baseURL, url.PathEscape(c.cloudName), uploadResourceType)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("media store unreachable: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}
