package nexus

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ttpedia/backend/internal/index"
	"github.com/ttpedia/backend/internal/pedia"
)

func openTestStore(t *testing.T) index.Store {
	t.Helper()
	s, err := index.OpenPebbleStore(filepath.Join(t.TempDir(), "idx"))
	if err != nil {
		t.Fatalf("OpenPebbleStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestReconcileIndexDefThenRefInSameTransaction(t *testing.T) {
	store := openTestStore(t)

	meta := []pedia.Metadatum{
		{Kind: pedia.KindOutput, OutputFile: "entry-widget.html"},
		{Kind: pedia.KindIndexDef, Index: "gen", Entry: "widget", Fragment: "sec1"},
		{Kind: pedia.KindIndexText, Index: "gen", Entry: "widget", TeXForm: `\textit{Widget}`, PlainForm: "Widget"},
		{Kind: pedia.KindOutput, OutputFile: "entry-gadget.html"},
		{Kind: pedia.KindIndexRef, Index: "gen", Entry: "widget", Flags: pedia.NeedsLoc | pedia.NeedsText},
	}

	tex, err := ReconcileIndex(store, meta)
	if err != nil {
		t.Fatalf("ReconcileIndex: %v", err)
	}

	if !strings.Contains(tex, `\pedia resolve**gen**widget**loc\endcsname{widgetsec1}`) {
		t.Fatalf("missing loc def in %q", tex)
	}
	if !strings.Contains(tex, `\pedia resolve**gen**widget**text tex\endcsname{\textit{Widget}}`) {
		t.Fatalf("missing tex def in %q", tex)
	}
	if !strings.Contains(tex, `\pedia resolve**gen**widget**text plain\endcsname{Widget}`) {
		t.Fatalf("missing plain def in %q", tex)
	}

	// the definition must have been committed, visible to a fresh lookup.
	e, err := store.Get("gen", "widget")
	if err != nil {
		t.Fatalf("Get after commit: %v", err)
	}
	if e.DefiningEntry != "widget" || e.Fragment != "sec1" {
		t.Fatalf("got %+v", e)
	}
}

func TestReconcileIndexRefBeforeDefUsesDefaults(t *testing.T) {
	store := openTestStore(t)

	meta := []pedia.Metadatum{
		{Kind: pedia.KindIndexRef, Index: "gen", Entry: "unknown", Flags: pedia.NeedsLoc | pedia.NeedsText},
	}

	tex, err := ReconcileIndex(store, meta)
	if err != nil {
		t.Fatalf("ReconcileIndex: %v", err)
	}

	if !strings.Contains(tex, `\pedia resolve**gen**unknown**loc\endcsname{ENTRYREF}`) {
		t.Fatalf("missing default loc def in %q", tex)
	}
	if !strings.Contains(tex, `\pedia resolve**gen**unknown**text tex\endcsname{unknown}`) {
		t.Fatalf("missing default tex def in %q", tex)
	}
}

func TestReconcileIndexOverwritesPriorDefiningEntry(t *testing.T) {
	store := openTestStore(t)

	first := []pedia.Metadatum{
		{Kind: pedia.KindOutput, OutputFile: "entry-old.html"},
		{Kind: pedia.KindIndexDef, Index: "gen", Entry: "shared", Fragment: "a"},
	}
	if _, err := ReconcileIndex(store, first); err != nil {
		t.Fatalf("first ReconcileIndex: %v", err)
	}

	second := []pedia.Metadatum{
		{Kind: pedia.KindOutput, OutputFile: "entry-new.html"},
		{Kind: pedia.KindIndexDef, Index: "gen", Entry: "shared", Fragment: "b"},
	}
	if _, err := ReconcileIndex(store, second); err != nil {
		t.Fatalf("second ReconcileIndex: %v", err)
	}

	e, err := store.Get("gen", "shared")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e.DefiningEntry != "new" || e.Fragment != "b" {
		t.Fatalf("got %+v, want defining entry overwritten to new/b", e)
	}
}
