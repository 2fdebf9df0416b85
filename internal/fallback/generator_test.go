package fallback

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
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

func servePNG(t *testing.T, w, h int, c color.Color) *httptest.Server {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testGenerator(t *testing.T) *Generator {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return New(fetch.New(nil), store, "http://localhost:8002/static", zerolog.New(io.Discard))
}

func TestSubmitComposesAndPersists(t *testing.T) {
	primary := servePNG(t, 200, 300, color.RGBA{B: 255, A: 255})
	overlay := servePNG(t, 50, 50, color.RGBA{R: 255, A: 255})
	g := testGenerator(t)

	req := domain.Request{
		Kind:       domain.KindTryon,
		SubjectID:  "u1",
		InputRef:   primary.URL,
		OverlayRef: overlay.URL,
	}
	res, err := g.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Artifact == nil {
		t.Fatalf("expected synchronous artifact")
	}
	if !strings.HasPrefix(res.Artifact.ArtifactURL, "http://localhost:8002/static/fallback/tryon/") {
		t.Fatalf("ArtifactURL = %q", res.Artifact.ArtifactURL)
	}
	if !strings.HasSuffix(res.Artifact.ArtifactURL, ".png") {
		t.Fatalf("ArtifactURL = %q", res.Artifact.ArtifactURL)
	}
}

func TestSubmitDeterministicURL(t *testing.T) {
	primary := servePNG(t, 100, 100, color.RGBA{G: 255, A: 255})
	g := testGenerator(t)

	req := domain.Request{Kind: domain.KindAnimate, SubjectID: "u1", InputRef: primary.URL}
	a, err := g.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	b, err := g.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if a.Artifact.ArtifactURL != b.Artifact.ArtifactURL {
		t.Fatalf("identical inputs produced different URLs: %q vs %q", a.Artifact.ArtifactURL, b.Artifact.ArtifactURL)
	}
}

func TestSubmitUnfetchableInputUsesPlaceholder(t *testing.T) {
	g := testGenerator(t)

	req := domain.Request{Kind: domain.KindAnimate, SubjectID: "u1", InputRef: "http://127.0.0.1:1/nope.jpg"}
	res, err := g.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit must still succeed: %v", err)
	}
	if res.Artifact == nil || res.Artifact.ArtifactURL == "" {
		t.Fatalf("expected placeholder artifact, got %+v", res)
	}
}
