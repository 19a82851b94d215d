package pedia

import (
	"encoding/json"
	"fmt"
	"sort"
)

// AssetSpec is a merge-semilattice of font/CSS declarations produced by
// the TeX engine. The engine itself defines conflict semantics; here we
// treat it as a set of named declarations keyed by asset path, each
// carrying an opaque content hash. Two specs conflict if they declare the
// same key with different hashes. This mirrors the "opaque contract"
// framing of spec.md §3: callers never need to know what's inside a
// declaration, only whether merging two of them succeeds.
type AssetSpec struct {
	decls map[string]string // asset path -> content hash
}

// NewAssetSpec returns an empty specification.
func NewAssetSpec() *AssetSpec {
	return &AssetSpec{decls: map[string]string{}}
}

// Load deserializes a specification previously produced by Save.
func Load(serialized string) (*AssetSpec, error) {
	if serialized == "" {
		return NewAssetSpec(), nil
	}
	var decls map[string]string
	if err := json.Unmarshal([]byte(serialized), &decls); err != nil {
		return nil, fmt.Errorf("unmarshal asset spec: %w", err)
	}
	if decls == nil {
		decls = map[string]string{}
	}
	return &AssetSpec{decls: decls}, nil
}

// Save serializes the current merged set.
func (a *AssetSpec) Save() (string, error) {
	data, err := json.Marshal(a.decls)
	if err != nil {
		return "", fmt.Errorf("marshal asset spec: %w", err)
	}
	return string(data), nil
}

// Clone returns a deep copy, so a failed merge attempt never mutates the
// receiver (required by the invariant that a rejected /pass1 leaves
// cur_assets untouched).
func (a *AssetSpec) Clone() *AssetSpec {
	decls := make(map[string]string, len(a.decls))
	for k, v := range a.decls {
		decls[k] = v
	}
	return &AssetSpec{decls: decls}
}

// AddFromSaved merges a serialized specification into a clone of the
// receiver, returning the merged result. It fails with ErrAssetConflict
// if the two specs declare the same asset path with different hashes;
// the receiver is never mutated, satisfying S5 (a rejected merge must not
// change cur_assets).
func (a *AssetSpec) AddFromSaved(serialized string) (*AssetSpec, error) {
	other, err := Load(serialized)
	if err != nil {
		return nil, err
	}
	merged := a.Clone()
	for k, v := range other.decls {
		if existing, ok := merged.decls[k]; ok && existing != v {
			return nil, fmt.Errorf("%w: asset %q declared with conflicting content", ErrAssetConflict, k)
		}
		merged.decls[k] = v
	}
	return merged, nil
}

// Equal reports whether two specifications declare exactly the same set
// of assets with the same content. Used to decide whether a merge
// changed the live generation (see the pluggable ShouldPreserveAssets
// predicate in internal/nexus).
func (a *AssetSpec) Equal(b *AssetSpec) bool {
	if len(a.decls) != len(b.decls) {
		return false
	}
	for k, v := range a.decls {
		if bv, ok := b.decls[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// Keys returns the declared asset paths in sorted order, useful for
// deterministic logging and tests.
func (a *AssetSpec) Keys() []string {
	keys := make([]string, 0, len(a.decls))
	for k := range a.decls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
