package pedia

import (
	"errors"
	"testing"
)

func TestAssetSpecMergeAndConflict(t *testing.T) {
	a := NewAssetSpec()
	saved, err := (&AssetSpec{decls: map[string]string{"font.otf": "h1"}}).Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	merged, err := a.AddFromSaved(saved)
	if err != nil {
		t.Fatalf("AddFromSaved: %v", err)
	}
	if len(merged.Keys()) != 1 {
		t.Fatalf("merged has %d keys, want 1", len(merged.Keys()))
	}

	conflicting, _ := (&AssetSpec{decls: map[string]string{"font.otf": "h2"}}).Save()
	if _, err := merged.AddFromSaved(conflicting); !errors.Is(err, ErrAssetConflict) {
		t.Fatalf("AddFromSaved conflicting = %v, want ErrAssetConflict", err)
	}

	// merged must be untouched by the failed merge.
	roundTripped, _ := merged.Save()
	again, _ := Load(roundTripped)
	if !merged.Equal(again) {
		t.Fatalf("merged spec mutated by failed AddFromSaved")
	}
}

func TestAssetSpecEqual(t *testing.T) {
	a, _ := Load(`{"a.css":"h1","b.otf":"h2"}`)
	b, _ := Load(`{"b.otf":"h2","a.css":"h1"}`)
	if !a.Equal(b) {
		t.Fatal("expected equal specs regardless of key order")
	}

	c, _ := Load(`{"a.css":"h1"}`)
	if a.Equal(c) {
		t.Fatal("expected unequal specs")
	}
}
