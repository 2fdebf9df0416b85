package fingerprint

import (
	"fmt"
	"math/rand"
	"testing"

	"animator/internal/domain"
)

func baseRequest() domain.Request {
	return domain.Request{
		Kind:            domain.KindAnimate,
		SubjectID:       "u1",
		InputRef:        "https://cdn.example.com/selfie.jpg",
		Actions:         []domain.Action{domain.ActionTurn},
		DurationSeconds: 4,
		AspectRatio:     "9:16",
	}
}

func TestDeriveDeterministic(t *testing.T) {
	a := Derive(baseRequest())
	b := Derive(baseRequest())
	if a != b {
		t.Fatalf("identical requests produced different fingerprints: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}

func TestDeriveFieldSensitivity(t *testing.T) {
	base := Derive(baseRequest())

	variants := []domain.Request{}

	r := baseRequest()
	r.SubjectID = "u2"
	variants = append(variants, r)

	r = baseRequest()
	r.InputRef = "https://cdn.example.com/other.jpg"
	variants = append(variants, r)

	r = baseRequest()
	r.Actions = []domain.Action{domain.ActionWave}
	variants = append(variants, r)

	r = baseRequest()
	r.DurationSeconds = 5
	variants = append(variants, r)

	r = baseRequest()
	r.AspectRatio = "1:1"
	variants = append(variants, r)

	r = baseRequest()
	r.Kind = domain.KindTryon
	variants = append(variants, r)

	for i, v := range variants {
		if Derive(v) == base {
			t.Fatalf("variant %d collided with base request", i)
		}
	}
}

func TestDeriveOrderedActionList(t *testing.T) {
	a := baseRequest()
	a.Kind = domain.KindCompose
	a.Actions = []domain.Action{domain.ActionTurn, domain.ActionWave}

	b := baseRequest()
	b.Kind = domain.KindCompose
	b.Actions = []domain.Action{domain.ActionWave, domain.ActionTurn}

	if Derive(a) == Derive(b) {
		t.Fatalf("action order must affect the fingerprint")
	}
}

// A request whose field content could be re-split across field boundaries
// must not collide: the encoding is length-prefixed, not separator-joined.
func TestDeriveNoConcatenationAmbiguity(t *testing.T) {
	a := baseRequest()
	a.SubjectID = "u1:https"
	a.InputRef = "//x"

	b := baseRequest()
	b.SubjectID = "u1"
	b.InputRef = ":https//x"

	if Derive(a) == Derive(b) {
		t.Fatalf("field boundary ambiguity collision")
	}
}

func TestDeriveRandomizedCorpusNoCollision(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	actions := []domain.Action{domain.ActionTurn, domain.ActionWave, domain.ActionWalk}
	seen := make(map[string]string)

	for i := 0; i < 5000; i++ {
		n := 1 + rng.Intn(3)
		acts := make([]domain.Action, n)
		for j := range acts {
			acts[j] = actions[rng.Intn(len(actions))]
		}
		req := domain.Request{
			Kind:            domain.KindAnimate,
			SubjectID:       fmt.Sprintf("user-%d", rng.Intn(500)),
			InputRef:        fmt.Sprintf("https://cdn.example.com/img-%d.jpg", rng.Intn(1000)),
			Actions:         acts,
			DurationSeconds: 3 + rng.Intn(4),
			AspectRatio:     "9:16",
		}
		key := fmt.Sprintf("%s|%s|%v|%d", req.SubjectID, req.InputRef, req.Actions, req.DurationSeconds)
		fp := Derive(req)
		if prev, ok := seen[fp]; ok && prev != key {
			t.Fatalf("collision between %q and %q", prev, key)
		}
		seen[fp] = key
	}
}
