package pedia

import (
	"bufio"
	"fmt"
	"strings"
)

// Reference flag bits carried by an IndexRef line.
const (
	NeedsLoc  = 1 << 0
	NeedsText = 1 << 1
)

// Metadatum is one parsed line of a pedia.txt stream.
type Metadatum struct {
	Kind MetadatumKind

	// Output
	OutputFile string

	// IndexDef / IndexText / IndexRef
	Index string
	Entry string

	// IndexDef
	Fragment string

	// IndexText
	TeXForm   string
	PlainForm string

	// IndexRef
	Flags int
}

// MetadatumKind distinguishes the four pedia.txt line forms.
type MetadatumKind int

const (
	KindOutput MetadatumKind = iota
	KindIndexDef
	KindIndexText
	KindIndexRef
)

// ParseMetadata parses a pedia.txt stream. It is line-based and
// whitespace-delimited; an unrecognized line fails fast with an error
// naming its 1-based line number.
func ParseMetadata(text string) ([]Metadatum, error) {
	var out []Metadatum
	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		m, err := parseMetadatumLine(line)
		if err != nil {
			return nil, fmt.Errorf("pedia.txt line %d: %w", lineNo, err)
		}
		out = append(out, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("pedia.txt: %w", err)
	}
	return out, nil
}

func parseMetadatumLine(line string) (Metadatum, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Metadatum{}, fmt.Errorf("empty line")
	}

	switch fields[0] {
	case "Output":
		if len(fields) != 2 {
			return Metadatum{}, fmt.Errorf("Output: want 1 argument, got %d", len(fields)-1)
		}
		return Metadatum{Kind: KindOutput, OutputFile: fields[1]}, nil

	case "IndexDef":
		if len(fields) != 4 {
			return Metadatum{}, fmt.Errorf("IndexDef: want 3 arguments, got %d", len(fields)-1)
		}
		return Metadatum{Kind: KindIndexDef, Index: fields[1], Entry: fields[2], Fragment: fields[3]}, nil

	case "IndexText":
		if len(fields) != 5 {
			return Metadatum{}, fmt.Errorf("IndexText: want 4 arguments, got %d", len(fields)-1)
		}
		return Metadatum{Kind: KindIndexText, Index: fields[1], Entry: fields[2], TeXForm: fields[3], PlainForm: fields[4]}, nil

	case "IndexRef":
		if len(fields) != 4 {
			return Metadatum{}, fmt.Errorf("IndexRef: want 3 arguments, got %d", len(fields)-1)
		}
		flags, err := parseRefFlags(fields[3])
		if err != nil {
			return Metadatum{}, fmt.Errorf("IndexRef: %w", err)
		}
		return Metadatum{Kind: KindIndexRef, Index: fields[1], Entry: fields[2], Flags: flags}, nil

	default:
		return Metadatum{}, fmt.Errorf("unknown metadatum form %q", fields[0])
	}
}

// parseRefFlags parses a `|`-separated bitmask like "needsLoc|needsText".
func parseRefFlags(s string) (int, error) {
	flags := 0
	for _, part := range strings.Split(s, "|") {
		switch part {
		case "needsLoc":
			flags |= NeedsLoc
		case "needsText":
			flags |= NeedsText
		default:
			return 0, fmt.Errorf("unknown ref flag %q", part)
		}
	}
	return flags, nil
}

// OutputStem strips the "entry-" prefix and ".html" suffix from an Output
// line's file name, yielding the entry name that becomes current_entry.
func OutputStem(outputFile string) string {
	s := strings.TrimPrefix(outputFile, "entry-")
	s = strings.TrimSuffix(s, ".html")
	return s
}
