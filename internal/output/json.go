package output

import (
	"encoding/json"
	"io"

	"scenegate/internal/finding"
)

// WriteJSON renders findings as a structured array. An empty run yields
// an empty array, never null.
func WriteJSON(w io.Writer, findings []finding.Finding) error {
	if findings == nil {
		findings = []finding.Finding{}
	}
	data, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
