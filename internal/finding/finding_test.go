package finding

import (
	"encoding/json"
	"testing"
)

func TestFindingString(t *testing.T) {
	f := Finding{
		File:    "scene.py",
		Line:    3,
		Col:     4,
		Level:   LevelError,
		Code:    CodeDangerousCall,
		Message: "Dangerous call: os.system",
	}
	want := "ERROR [CAL001] scene.py:3:4 Dangerous call: os.system"
	if got := f.String(); got != want {
		t.Fatalf("unexpected text form: %q", got)
	}
}

func TestFindingJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(Finding{File: "a.py", Line: 1, Level: LevelWarn, Code: "FS001", Message: "m"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"file", "line", "col", "level", "code", "message"} {
		if _, ok := m[key]; !ok {
			t.Fatalf("missing serialized field %q in %s", key, data)
		}
	}
}

func TestRunResultDerivedFlags(t *testing.T) {
	var r RunResult
	if r.HasError() || r.HasWarning() {
		t.Fatal("empty result should have no error or warning")
	}

	r.Findings = append(r.Findings, Finding{Level: LevelWarn})
	if r.HasError() {
		t.Fatal("warn-only result reported an error")
	}
	if !r.HasWarning() {
		t.Fatal("expected HasWarning for warn finding")
	}

	r.Findings = append(r.Findings, Finding{Level: LevelError})
	if !r.HasError() {
		t.Fatal("expected HasError after error finding")
	}
}
