package pedia

import "testing"

func TestParseMetadata(t *testing.T) {
	text := `
Output entry-foo.html
IndexDef idx foo frag1
IndexText idx foo texform plainform
IndexRef idx bar needsLoc|needsText
`
	got, err := ParseMetadata(text)
	if err != nil {
		t.Fatalf("ParseMetadata: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d metadata lines, want 4", len(got))
	}

	if got[0].Kind != KindOutput || got[0].OutputFile != "entry-foo.html" {
		t.Errorf("line 0 = %+v", got[0])
	}
	if got[1].Kind != KindIndexDef || got[1].Index != "idx" || got[1].Entry != "foo" || got[1].Fragment != "frag1" {
		t.Errorf("line 1 = %+v", got[1])
	}
	if got[2].Kind != KindIndexText || got[2].TeXForm != "texform" || got[2].PlainForm != "plainform" {
		t.Errorf("line 2 = %+v", got[2])
	}
	if got[3].Kind != KindIndexRef || got[3].Flags != (NeedsLoc|NeedsText) {
		t.Errorf("line 3 = %+v", got[3])
	}
}

func TestParseMetadataUnknownForm(t *testing.T) {
	_, err := ParseMetadata("Bogus a b c\n")
	if err == nil {
		t.Fatal("expected error for unknown metadatum form")
	}
}

func TestOutputStem(t *testing.T) {
	cases := map[string]string{
		"entry-foo.html":     "foo",
		"entry-bar-baz.html": "bar-baz",
	}
	for in, want := range cases {
		if got := OutputStem(in); got != want {
			t.Errorf("OutputStem(%q) = %q, want %q", in, got, want)
		}
	}
}
