package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"animator/internal/domain"
	"animator/internal/fetch"
	"animator/internal/storage"
)

func serveBytes(t *testing.T, data []byte, mime string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", mime)
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return NewClient(Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		Model:      "image-compose-test",
		HTTPClient: srv.Client(),
		Fetcher:    fetch.New(nil),
		Store:      store,
		AssetBase:  "http://localhost:8002/static",
		Logger:     zerolog.New(io.Discard),
	})
}

func TestSubmitComposesAndPersists(t *testing.T) {
	person := serveBytes(t, []byte("person-bytes"), "image/jpeg")
	garment := serveBytes(t, []byte("garment-bytes"), "image/png")
	result := []byte("composed-image-bytes")

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/image-compose-test:generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		var req generateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 3 {
			t.Errorf("payload shape = %+v", req)
		}
		json.NewEncoder(w).Encode(generateContentResponse{
			Candidates: []candidate{{Content: content{Parts: []part{
				{Text: "here is your image"},
				{InlineData: &inlineData{MimeType: "image/png", Data: base64.StdEncoding.EncodeToString(result)}},
			}}}},
		})
	})

	req := domain.Request{
		Kind:       domain.KindTryon,
		SubjectID:  "u1",
		InputRef:   person.URL,
		OverlayRef: garment.URL,
	}
	res, err := c.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Artifact == nil {
		t.Fatalf("expected synchronous artifact")
	}
	if !strings.HasPrefix(res.Artifact.ArtifactURL, "http://localhost:8002/static/tryon/") {
		t.Fatalf("ArtifactURL = %q", res.Artifact.ArtifactURL)
	}
	if !strings.HasSuffix(res.Artifact.ArtifactURL, ".png") {
		t.Fatalf("ArtifactURL = %q", res.Artifact.ArtifactURL)
	}
}

func TestSubmitNoImageInResponse(t *testing.T) {
	person := serveBytes(t, []byte("person-bytes"), "image/jpeg")
	garment := serveBytes(t, []byte("garment-bytes"), "image/png")

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateContentResponse{
			Candidates: []candidate{{Content: content{Parts: []part{{Text: "cannot comply"}}}}},
		})
	})

	req := domain.Request{Kind: domain.KindTryon, SubjectID: "u1", InputRef: person.URL, OverlayRef: garment.URL}
	if _, err := c.Submit(context.Background(), req); err == nil {
		t.Fatalf("expected error when response has no image parts")
	}
}

func TestSubmitAPIErrorSurfacesMessage(t *testing.T) {
	person := serveBytes(t, []byte("p"), "image/jpeg")
	garment := serveBytes(t, []byte("g"), "image/png")

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
	})

	req := domain.Request{Kind: domain.KindTryon, SubjectID: "u1", InputRef: person.URL, OverlayRef: garment.URL}
	_, err := c.Submit(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("err = %v, want quota message", err)
	}
}

func TestExtensionForMIME(t *testing.T) {
	if got := extensionForMIME("image/jpeg"); got != ".jpg" {
		t.Fatalf("jpeg ext = %q", got)
	}
	if got := extensionForMIME(""); got != ".png" {
		t.Fatalf("default ext = %q", got)
	}
}
