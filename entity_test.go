package ecs

import "testing"

func TestPackUnpackEntityId(t *testing.T) {
	id, err := packEntityId(42, 7)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	index, gen := unpackEntityId(id)
	if index != 42 || gen != 7 {
		t.Errorf("got index=%d generation=%d, want 42,7", index, gen)
	}
	if id.Index() != 42 {
		t.Errorf("Index() = %d, want 42", id.Index())
	}
	if id.Generation() != 7 {
		t.Errorf("Generation() = %d, want 7", id.Generation())
	}
}

func TestPackEntityIdOverflow(t *testing.T) {
	if _, err := packEntityId(maxIndex, 0); err == nil {
		t.Errorf("expected error for out-of-range index")
	}
	if _, err := packEntityId(0, maxGeneration); err == nil {
		t.Errorf("expected error for out-of-range generation")
	}
}

func TestEntityIdEquality(t *testing.T) {
	a, _ := packEntityId(1, 0)
	b, _ := packEntityId(1, 0)
	c, _ := packEntityId(1, 1)
	if a != b {
		t.Errorf("expected equal ids for same index/generation")
	}
	if a == c {
		t.Errorf("expected different ids across generations of same index")
	}
}

func TestNoEntityIsZero(t *testing.T) {
	if NoEntity != 0 {
		t.Errorf("NoEntity must be the zero value")
	}
}
