package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"scenegate/internal/finding"
)

func sampleFindings() []finding.Finding {
	return []finding.Finding{
		{File: "scene.py", Line: 2, Col: 0, Level: finding.LevelError, Code: finding.CodeDangerousCall, Message: "Dangerous call: os.system"},
		{File: "other.py", Line: 1, Col: 4, Level: finding.LevelWarn, Code: finding.CodeWriteOutsideRoot, Message: "Write outside allowed dirs: '/tmp/x'"},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleFindings()); err != nil {
		t.Fatalf("write text: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected one line per finding, got %q", buf.String())
	}
	if lines[0] != "ERROR [CAL001] scene.py:2:0 Dangerous call: os.system" {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
}

func TestWriteTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, nil); err != nil {
		t.Fatalf("write text: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("clean run should print nothing, got %q", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleFindings()); err != nil {
		t.Fatalf("write json: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(decoded))
	}
	if decoded[0]["code"] != "CAL001" || decoded[0]["file"] != "scene.py" {
		t.Fatalf("unexpected entry: %v", decoded[0])
	}
}

func TestWriteJSONEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("empty run should serialize as [], got %q", buf.String())
	}
}

func TestWriteSARIF(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSARIF(&buf, "/project", sampleFindings()); err != nil {
		t.Fatalf("write sarif: %v", err)
	}

	var report sarifReport
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("invalid sarif json: %v", err)
	}
	if report.Version != "2.1.0" || len(report.Runs) != 1 {
		t.Fatalf("unexpected report shell: %+v", report)
	}

	run := report.Runs[0]
	if run.Tool.Driver.Name != "scenegate" {
		t.Fatalf("unexpected driver name: %s", run.Tool.Driver.Name)
	}
	if len(run.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(run.Results))
	}
	if run.Results[0].Level != "error" || run.Results[1].Level != "warning" {
		t.Fatalf("level mapping wrong: %+v", run.Results)
	}
	// Only the two fired rules appear in the catalog.
	if len(run.Tool.Driver.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %+v", run.Tool.Driver.Rules)
	}
}
