package uid

import (
	"regexp"
	"testing"
)

func TestSnowflake(t *testing.T) {
	g, err := NewSnowflakeWithNode(7)
	if err != nil {
		t.Fatalf("new snowflake: %v", err)
	}

	seen := make(map[int64]struct{}, 1000)
	prev := int64(0)
	for range 1000 {
		id := g.Generate()
		if id <= prev {
			t.Fatalf("ids not increasing: %d after %d", id, prev)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = struct{}{}
		prev = id
	}

	if _, err := NewSnowflakeWithNode(4096); err == nil {
		t.Fatal("expected error for node out of range")
	}
}

func TestUUID(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

	id := NewUUID().Generate()
	if !re.MatchString(id) {
		t.Fatalf("id %q is not a uuidv7", id)
	}
}

func TestTokenID(t *testing.T) {
	g, err := NewTokenID()
	if err != nil {
		t.Skipf("no node identity on this host: %v", err)
	}

	re := regexp.MustCompile(`^[0-9a-f]{64}$`)
	seen := make(map[string]struct{}, 500)
	for range 500 {
		id := g.Generate()
		if !re.MatchString(id) {
			t.Fatalf("id %q is not 64 hex chars", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
