package pedia

import "fmt"

// Defaults used when a stored index field is empty (§4.1 step 4).
const (
	DefaultEntryField = "ENTRYREF"
	DefaultFragment   = ""
)

// LocDefLine renders the `\pedia resolve**<idx>**<ent>**loc` TeX
// definition. entry/fragment default to DefaultEntryField/"" when the
// corresponding stored fields are empty.
func LocDefLine(index, entry, entryField, fragmentField string) string {
	if entryField == "" {
		entryField = DefaultEntryField
	}
	return fmt.Sprintf("\\expandafter\\def\\csname pedia resolve**%s**%s**loc\\endcsname{%s%s}\n",
		index, entry, entryField, fragmentField)
}

// TextDefLines renders the `**text tex` and `**text plain` TeX
// definitions. texForm/plainForm default to the literal entry name when
// the corresponding stored field is empty.
func TextDefLines(index, entry, texForm, plainForm string) string {
	if texForm == "" {
		texForm = entry
	}
	if plainForm == "" {
		plainForm = entry
	}
	return fmt.Sprintf("\\expandafter\\def\\csname pedia resolve**%s**%s**text tex\\endcsname{%s}\n", index, entry, texForm) +
		fmt.Sprintf("\\expandafter\\def\\csname pedia resolve**%s**%s**text plain\\endcsname{%s}\n", index, entry, plainForm)
}
