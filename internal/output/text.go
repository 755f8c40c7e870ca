package output

import (
	"fmt"
	"io"

	"scenegate/internal/finding"
)

// WriteText renders findings one per line as
// "LEVEL [CODE] file:line:col message".
func WriteText(w io.Writer, findings []finding.Finding) error {
	for _, f := range findings {
		if _, err := fmt.Fprintln(w, f.String()); err != nil {
			return err
		}
	}
	return nil
}
