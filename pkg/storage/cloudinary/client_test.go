package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/printforge/proofroom-backend/pkg/errors"
)

func newTestClient(baseURL string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		baseURL:      baseURL,
		cloudName:    "test-cloud",
		uploadPreset: "proof-preset",
		apiKey:       "key",
		apiSecret:    "secret",
		now:          func() time.Time { return time.Unix(1700000000, 0) },
	}
}

func TestUploadSuccess(t *testing.T) {
	t.Parallel()

	var gotPreset, gotContext, gotTags, gotFile string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/test-cloud/auto/upload") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotPreset = r.FormValue("upload_preset")
		gotContext = r.FormValue("context")
		gotTags = r.FormValue("tags")
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			content, _ := io.ReadAll(file)
			gotFile = string(content)
			_ = file.Close()
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"public_id":"proofs/abc123","secure_url":"https://res.cloudinary.com/test-cloud/image/upload/v1/proofs/abc123.pdf","bytes":11,"format":"pdf","width":600,"height":400}`))
	}))
	defer server.Close()

	var mu sync.Mutex
	var reports []int64
	client := newTestClient(server.URL)
	result, err := client.Upload(context.Background(), UploadInput{
		FileName: "design.pdf",
		Body:     strings.NewReader("hello-bytes"),
		Size:     11,
		Context:  map[string]string{"order_id": "ord-1", "channel": "admin"},
		Tags:     []string{"proof", "ord-1"},
		OnProgress: func(sent, total int64) {
			mu.Lock()
			reports = append(reports, sent)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if gotPreset != "proof-preset" {
		t.Fatalf("unexpected preset %q", gotPreset)
	}
	if gotContext != "channel=admin|order_id=ord-1" {
		t.Fatalf("unexpected context %q", gotContext)
	}
	if gotTags != "proof,ord-1" {
		t.Fatalf("unexpected tags %q", gotTags)
	}
	if gotFile != "hello-bytes" {
		t.Fatalf("unexpected file body %q", gotFile)
	}
	if result.PublicID != "proofs/abc123" {
		t.Fatalf("unexpected public id %q", result.PublicID)
	}
	if result.Width != 600 || result.Height != 400 {
		t.Fatalf("unexpected dimensions %dx%d", result.Width, result.Height)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reports) == 0 {
		t.Fatal("expected progress reports")
	}
	last := int64(0)
	for _, sent := range reports {
		if sent <= last {
			t.Fatalf("progress regressed: %v", reports)
		}
		last = sent
	}
	if last != 11 {
		t.Fatalf("expected final progress 11, got %d", last)
	}
}

func TestUploadServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid preset"}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Upload(context.Background(), UploadInput{
		FileName: "design.png",
		Body:     strings.NewReader("png-bytes"),
		Size:     9,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestUploadCancelled(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	client := newTestClient(server.URL)
	_, err := client.Upload(ctx, UploadInput{
		FileName: "design.ai",
		Body:     strings.NewReader("vector-bytes"),
		Size:     12,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeCancelled {
		t.Fatalf("expected cancelled error, got %v", err)
	}
}

func TestDestroySignsRequest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/test-cloud/image/destroy") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.FormValue("public_id"); got != "proofs/abc123" {
			t.Errorf("unexpected public_id %q", got)
		}
		timestamp := r.FormValue("timestamp")
		sum := sha1.Sum([]byte("public_id=proofs/abc123&timestamp=" + timestamp + "secret"))
		if got := r.FormValue("signature"); got != hex.EncodeToString(sum[:]) {
			t.Errorf("unexpected signature %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.Destroy(context.Background(), "proofs/abc123"); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
}

func TestDestroyNotFoundIsSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"not found"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.Destroy(context.Background(), "proofs/missing"); err != nil {
		t.Fatalf("Destroy not found should succeed: %v", err)
	}
}

func TestOptimizedURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"inserts transformation",
			"https://res.cloudinary.com/test-cloud/image/upload/v1/proofs/abc.pdf",
			"https://res.cloudinary.com/test-cloud/image/upload/f_auto,q_auto/v1/proofs/abc.pdf",
		},
		{
			"already optimized",
			"https://res.cloudinary.com/test-cloud/image/upload/f_auto,q_auto/v1/proofs/abc.pdf",
			"https://res.cloudinary.com/test-cloud/image/upload/f_auto,q_auto/v1/proofs/abc.pdf",
		},
		{
			"non delivery url",
			"https://example.com/files/abc.pdf",
			"https://example.com/files/abc.pdf",
		},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := OptimizedURL(tc.in); got != tc.want {
				t.Fatalf("OptimizedURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
