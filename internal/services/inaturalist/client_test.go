package inaturalist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"naturatag/internal/config"
	"naturatag/internal/logging"
	"naturatag/internal/services"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()

	mgr, err := NewTokenManager(filepath.Join(t.TempDir(), "token_state.json"))
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	if err := mgr.Save("test-token"); err != nil {
		t.Fatalf("Save token: %v", err)
	}

	cfg := config.Default()
	return NewClient(&cfg, mgr, logging.NewNop(), WithBaseURL(serverURL))
}

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.jpg")
	if err := os.WriteFile(path, []byte("not-really-a-jpeg"), 0o644); err != nil {
		t.Fatalf("write test image: %v", err)
	}
	return path
}

func TestScoreImageParsesCandidates(t *testing.T) {
	var gotAuth, gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUserAgent = r.Header.Get("User-Agent")
		if r.URL.Path != scoreImagePath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("image"); err != nil {
			t.Errorf("missing image part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"combined_score":87.4,"taxon":{"name":"Ardea herodias","preferred_common_name":"Grand Héron"}},
			{"combined_score":4.2,"taxon":{"name":"Ardea alba","preferred_common_name":"Great Egret"}},
			{"combined_score":2.1,"taxon":{"name":"Butorides virescens"}}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	candidates, err := client.ScoreImage(context.Background(), writeTestImage(t))
	if err != nil {
		t.Fatalf("ScoreImage: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotUserAgent == "" {
		t.Fatal("expected a User-Agent header")
	}
	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(candidates))
	}
	if candidates[0].CommonName != "Grand Heron" {
		t.Fatalf("expected accents folded, got %q", candidates[0].CommonName)
	}
	if candidates[0].LatinName != "Ardea herodias" || candidates[0].Confidence != 87.4 {
		t.Fatalf("unexpected first candidate %+v", candidates[0])
	}
	if candidates[2].CommonName != "Unknown" {
		t.Fatalf("expected missing common name to map to Unknown, got %q", candidates[2].CommonName)
	}
}

func TestScoreImageEmptyResultsIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	candidates, err := client.ScoreImage(context.Background(), writeTestImage(t))
	if err != nil {
		t.Fatalf("ScoreImage: %v", err)
	}
	if candidates == nil || len(candidates) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", candidates)
	}
}

func TestScoreImageRejectsMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ScoreImage(context.Background(), writeTestImage(t))
	if !errors.Is(err, services.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestScoreImageSurfacesHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ScoreImage(context.Background(), writeTestImage(t))
	if !errors.Is(err, services.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestScoreImageSurfacesTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ScoreImage(context.Background(), writeTestImage(t))
	if !errors.Is(err, services.ErrNoResponse) {
		t.Fatalf("expected ErrNoResponse, got %v", err)
	}
}

func TestScoreImageRequiresFreshToken(t *testing.T) {
	mgr, err := NewTokenManager(filepath.Join(t.TempDir(), "token_state.json"))
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	cfg := config.Default()
	client := NewClient(&cfg, mgr, logging.NewNop())

	_, err = client.ScoreImage(context.Background(), writeTestImage(t))
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition, got %v", err)
	}
	if !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing in chain, got %v", err)
	}
}

func TestVerifyTokenReturnsLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != usersMePath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"login":"naturalist42"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	login, err := client.VerifyToken(context.Background())
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if login != "naturalist42" {
		t.Fatalf("expected login naturalist42, got %q", login)
	}
}

func TestVerifyTokenRejectsUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.VerifyToken(context.Background()); !errors.Is(err, services.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}
