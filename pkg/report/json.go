package report

import (
	"encoding/json"
	"io"
)

// WriteJSON serializes every recorded summary as a JSON array, for
// downstream tooling that wants structured output instead of (or
// alongside) the plain-text report.
func WriteJSON(w io.Writer, summaries []ProcessSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}

// ReadJSON decodes a summary array previously written by WriteJSON,
// for checkpoint/resume tooling that wants to inspect prior results
// without replaying the gob checkpoint format.
func ReadJSON(r io.Reader) ([]ProcessSummary, error) {
	var summaries []ProcessSummary
	if err := json.NewDecoder(r).Decode(&summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}
