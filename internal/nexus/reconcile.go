package nexus

import (
	"fmt"
	"strings"

	"github.com/ttpedia/backend/internal/index"
	"github.com/ttpedia/backend/internal/pedia"
)

// ReconcileIndex implements spec.md §4.1 step 4 as a single write
// transaction over the index store: IndexRef lines resolve against
// whatever the transaction currently sees (including this same pedia.txt's
// earlier IndexDef/IndexText lines), IndexDef/IndexText lines stage
// updates, and everything commits atomically at the end.
func ReconcileIndex(store index.Store, metadata []pedia.Metadatum) (resolvedTeX string, err error) {
	txn, err := store.BeginWrite()
	if err != nil {
		return "", fmt.Errorf("nexus: begin index transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			txn.Rollback()
		}
	}()

	var tex strings.Builder
	currentEntry := ""

	for _, m := range metadata {
		switch m.Kind {
		case pedia.KindOutput:
			currentEntry = pedia.OutputStem(m.OutputFile)

		case pedia.KindIndexRef:
			entry, err := txn.Get(m.Index, m.Entry)
			if err != nil && err != index.ErrNotFound {
				return "", fmt.Errorf("nexus: resolve ref (%s, %s): %w", m.Index, m.Entry, err)
			}
			if m.Flags&pedia.NeedsLoc != 0 {
				tex.WriteString(pedia.LocDefLine(m.Index, m.Entry, entry.DefiningEntry, entry.Fragment))
			}
			if m.Flags&pedia.NeedsText != 0 {
				tex.WriteString(pedia.TextDefLines(m.Index, m.Entry, entry.TeXForm, entry.PlainForm))
			}

		case pedia.KindIndexDef:
			existing, err := txn.Get(m.Index, m.Entry)
			if err != nil && err != index.ErrNotFound {
				return "", fmt.Errorf("nexus: read before def (%s, %s): %w", m.Index, m.Entry, err)
			}
			existing.DefiningEntry = currentEntry
			existing.Fragment = m.Fragment
			if err := txn.Put(m.Index, m.Entry, existing); err != nil {
				return "", fmt.Errorf("nexus: stage def (%s, %s): %w", m.Index, m.Entry, err)
			}

		case pedia.KindIndexText:
			existing, err := txn.Get(m.Index, m.Entry)
			if err != nil && err != index.ErrNotFound {
				return "", fmt.Errorf("nexus: read before text (%s, %s): %w", m.Index, m.Entry, err)
			}
			existing.TeXForm = m.TeXForm
			existing.PlainForm = m.PlainForm
			if err := txn.Put(m.Index, m.Entry, existing); err != nil {
				return "", fmt.Errorf("nexus: stage text (%s, %s): %w", m.Index, m.Entry, err)
			}
		}
	}

	if err := txn.Commit(); err != nil {
		return "", fmt.Errorf("nexus: commit index transaction: %w", err)
	}
	committed = true
	return tex.String(), nil
}
