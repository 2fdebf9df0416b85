// Package fallback provides the local generator used when a remote engine is
// disabled by configuration or unreachable at submission. It always completes
// synchronously with a locally synthesized artifact, keeping the pipeline
// available end-to-end.
package fallback

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"animator/internal/compose"
	"animator/internal/domain"
	"animator/internal/fetch"
	"animator/internal/infra"
	"animator/internal/storage"

	"bytes"
)

// Generator composes artifacts locally and serves them from the static asset
// mount.
type Generator struct {
	fetcher *fetch.Client
	store   *storage.FileStore
	baseURL string
	logger  infra.Logger
}

// New constructs a fallback generator.
func New(fetcher *fetch.Client, store *storage.FileStore, baseURL string, logger infra.Logger) *Generator {
	return &Generator{fetcher: fetcher, store: store, baseURL: baseURL, logger: logger}
}

// Submit synthesizes an artifact for req. It never reports the remote error
// kinds: a failed input download degrades to a deterministic placeholder
// image, and a malformed input passes through the compositor unmodified.
func (g *Generator) Submit(ctx context.Context, req domain.Request) (*domain.SubmitResult, error) {
	primary, _, err := g.fetcher.Bytes(ctx, req.InputRef)
	if err != nil {
		g.logger.Warn().Err(err).Str("input_ref", req.InputRef).Msg("fallback: input fetch failed, using placeholder")
		primary = placeholderImage(req.InputRef)
	}

	var overlay []byte
	if req.OverlayRef != "" {
		overlay, _, err = g.fetcher.Bytes(ctx, req.OverlayRef)
		if err != nil {
			g.logger.Warn().Err(err).Str("overlay_ref", req.OverlayRef).Msg("fallback: overlay fetch failed, composing without it")
			overlay = nil
		}
	}

	composed := compose.Compose(primary, overlay)

	sum := sha256.Sum256(composed)
	key := fmt.Sprintf("fallback/%s/%s.png", req.Kind, hex.EncodeToString(sum[:16]))
	savedKey, err := g.store.Write(ctx, key, composed)
	if err != nil {
		return nil, fmt.Errorf("fallback: persist artifact: %w", err)
	}

	g.logger.Info().
		Str("subject_id", req.SubjectID).
		Str("storage_key", savedKey).
		Msg("fallback: composed local artifact")

	return &domain.SubmitResult{
		Artifact: &domain.Artifact{ArtifactURL: g.baseURL + "/" + savedKey},
	}, nil
}

// Poll is never reached: Submit always completes synchronously.
func (g *Generator) Poll(context.Context, string) (*domain.PollResult, error) {
	return nil, errors.New("fallback: no asynchronous tasks")
}

// placeholderImage renders a deterministic solid-color frame derived from the
// input reference, so repeated failures for the same input yield identical
// artifacts.
func placeholderImage(inputRef string) []byte {
	sum := sha256.Sum256([]byte(inputRef))
	fill := color.RGBA{R: sum[0], G: sum[1], B: sum[2], A: 255}

	img := image.NewRGBA(image.Rect(0, 0, 720, 1280))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

var _ domain.Generator = (*Generator)(nil)
