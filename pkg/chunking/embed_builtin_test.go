package chunking

import (
	"context"
	"testing"
)

func TestBuiltinEmbedder_Deterministic(t *testing.T) {
	e := BuiltinEmbedder{}
	v1, err := e.Embed(context.Background(), []string{"hello world"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	v2, err := e.Embed(context.Background(), []string{"hello world"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(v1[0]) != BuiltinDimensions {
		t.Fatalf("expected %d dims, got %d", BuiltinDimensions, len(v1[0]))
	}
	for i := range v1[0] {
		if v1[0][i] != v2[0][i] {
			t.Fatalf("builtin embedder not deterministic at index %d: %v != %v", i, v1[0][i], v2[0][i])
		}
	}
}

func TestBuiltinEmbedder_DistinctInputsDiffer(t *testing.T) {
	e := BuiltinEmbedder{}
	out, err := e.Embed(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if equalVectors(out[0], out[1]) {
		t.Fatal("distinct inputs produced identical vectors")
	}
}

func TestBuiltinEmbedder_NeverEmpty(t *testing.T) {
	e := BuiltinEmbedder{}
	out, err := e.Embed(context.Background(), []string{""})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(out[0]) != BuiltinDimensions {
		t.Fatalf("expected non-empty vector even for empty input, got %d dims", len(out[0]))
	}
}

func equalVectors(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
