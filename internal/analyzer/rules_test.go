package analyzer

import (
	"strings"
	"testing"

	"scenegate/internal/finding"
)

func testPolicy() Policy {
	return NewPolicy(
		[]string{"socket", "requests", "subprocess", "multiprocessing", "ftplib", "paramiko", "psutil"},
		"/project", "/artifacts",
	)
}

func analyze(t *testing.T, source string) []finding.Finding {
	t.Helper()
	return New(testPolicy()).AnalyzeSource("scene.py", []byte(source))
}

func codes(findings []finding.Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Code)
	}
	return out
}

func countCode(findings []finding.Finding, code string) int {
	n := 0
	for _, f := range findings {
		if f.Code == code {
			n++
		}
	}
	return n
}

func TestDeniedImportDirect(t *testing.T) {
	findings := analyze(t, "import socket\n")
	if len(findings) != 1 || findings[0].Code != finding.CodeDeniedImport {
		t.Fatalf("expected one IMP001, got %v", findings)
	}
	if !strings.Contains(findings[0].Message, "'socket'") {
		t.Fatalf("finding should name the module: %s", findings[0].Message)
	}
	if findings[0].Line != 1 {
		t.Fatalf("expected line 1, got %d", findings[0].Line)
	}
}

func TestDeniedImportFrom(t *testing.T) {
	findings := analyze(t, "from requests import get\n")
	if countCode(findings, finding.CodeDeniedImport) != 1 {
		t.Fatalf("expected exactly one IMP001, got %v", findings)
	}
	if !strings.Contains(findings[0].Message, "'requests'") {
		t.Fatalf("finding should name the module: %s", findings[0].Message)
	}
}

func TestDeniedImportSubmodule(t *testing.T) {
	findings := analyze(t, "import multiprocessing.pool\n")
	if countCode(findings, finding.CodeDeniedImport) != 1 {
		t.Fatalf("expected one IMP001 for submodule import, got %v", findings)
	}
	if !strings.Contains(findings[0].Message, "'multiprocessing'") {
		t.Fatalf("IMP001 should name the top-level module: %s", findings[0].Message)
	}
}

func TestMultipleImportsOneStatement(t *testing.T) {
	findings := analyze(t, "import socket, requests\n")
	if countCode(findings, finding.CodeDeniedImport) != 2 {
		t.Fatalf("expected IMP001 per denied module, got %v", findings)
	}
}

func TestAliasedImportStillDeniedAndRecorded(t *testing.T) {
	findings := analyze(t, "import subprocess as sp\nsp.run([\"ls\"])\n")
	if countCode(findings, finding.CodeDeniedImport) != 1 {
		t.Fatalf("aliasing must not evade IMP001: %v", findings)
	}
	if countCode(findings, finding.CodeProcessSpawn) != 1 {
		t.Fatalf("aliasing must not evade CAL002: %v", findings)
	}
}

func TestDangerousCallOsSystem(t *testing.T) {
	findings := analyze(t, "import os\nos.system(\"rm -rf /\")\n")
	if len(findings) != 1 || findings[0].Code != finding.CodeDangerousCall {
		t.Fatalf("expected exactly one CAL001, got %v", findings)
	}
	if findings[0].Message != "Dangerous call: os.system" {
		t.Fatalf("unexpected message: %s", findings[0].Message)
	}
	if findings[0].Line != 2 {
		t.Fatalf("expected line 2, got %d", findings[0].Line)
	}
}

func TestDangerousCallThroughAlias(t *testing.T) {
	findings := analyze(t, "import os as o\no.popen(\"ls\")\n")
	if countCode(findings, finding.CodeDangerousCall) != 1 {
		t.Fatalf("expected CAL001 through alias, got %v", findings)
	}
}

func TestDangerousCallBareEval(t *testing.T) {
	findings := analyze(t, "eval(\"1+1\")\n")
	if len(findings) != 1 || findings[0].Message != "Dangerous call: builtins.eval" {
		t.Fatalf("expected builtins.eval CAL001, got %v", findings)
	}
}

func TestDangerousCallBareExec(t *testing.T) {
	findings := analyze(t, "exec(compile(\"x=1\", \"<s>\", \"exec\"))\n")
	if countCode(findings, finding.CodeDangerousCall) != 1 {
		t.Fatalf("expected builtins.exec CAL001, got %v", findings)
	}
}

func TestNetworkUsage(t *testing.T) {
	findings := analyze(t, "import socket as s\ns.create_connection((\"h\", 80))\n")
	if countCode(findings, finding.CodeNetworkUsage) != 1 {
		t.Fatalf("expected CAL003 through alias, got %v", findings)
	}
	found := false
	for _, f := range findings {
		if f.Code == finding.CodeNetworkUsage && strings.Contains(f.Message, "'socket'") {
			found = true
		}
	}
	if !found {
		t.Fatalf("CAL003 should name the module: %v", findings)
	}
}

func TestFromImportMemberAlias(t *testing.T) {
	// r binds to the subprocess module itself, so calling it is spawning.
	findings := analyze(t, "from subprocess import run as r\nr([\"ls\"])\n")
	if countCode(findings, finding.CodeProcessSpawn) != 1 {
		t.Fatalf("expected CAL002 via from-import alias, got %v", findings)
	}
}

func TestAliasLastWriteWins(t *testing.T) {
	src := "import os as x\nimport subprocess as x\nx.call([\"ls\"])\n"
	findings := analyze(t, src)
	if countCode(findings, finding.CodeProcessSpawn) != 1 {
		t.Fatalf("rebinding must use the latest alias, got %v", findings)
	}
}

func TestWriteOutsideRoots(t *testing.T) {
	findings := analyze(t, "open(\"/etc/passwd\", \"w\")\n")
	if len(findings) != 1 || findings[0].Code != finding.CodeWriteOutsideRoot {
		t.Fatalf("expected exactly one FS001, got %v", findings)
	}
	if !strings.Contains(findings[0].Message, "'/etc/passwd'") {
		t.Fatalf("FS001 should name the literal path: %s", findings[0].Message)
	}
}

func TestWriteInsideRootsAllowed(t *testing.T) {
	cases := []string{
		"open(\"/artifacts/out.txt\", \"w\").write(\"ok\")\n",
		"open(\"/project/scene.cache\", \"a\")\n",
		"open(\"./notes.txt\", \"w\")\n",
		"open(\"notes.txt\", \"x\")\n", // relative paths are accepted by contract
	}
	for _, src := range cases {
		if findings := analyze(t, src); len(findings) != 0 {
			t.Fatalf("expected no findings for %q, got %v", src, findings)
		}
	}
}

func TestWritePathNormalization(t *testing.T) {
	findings := analyze(t, "open(\"/artifacts/../etc/passwd\", \"w\")\n")
	if countCode(findings, finding.CodeWriteOutsideRoot) != 1 {
		t.Fatalf("dot segments must be resolved before the prefix check, got %v", findings)
	}
}

func TestReadModeNotFlagged(t *testing.T) {
	for _, src := range []string{
		"open(\"/etc/passwd\")\n",
		"open(\"/etc/passwd\", \"r\")\n",
		"open(\"/etc/passwd\", \"rb\")\n",
	} {
		if findings := analyze(t, src); len(findings) != 0 {
			t.Fatalf("read-only open must not fire FS001 for %q: %v", src, findings)
		}
	}
}

func TestDynamicPathIsUndecidable(t *testing.T) {
	for _, src := range []string{
		"p = \"/etc/passwd\"\nopen(p, \"w\")\n",
		"open(\"/etc/\" + name, \"w\")\n",
		"open(f\"/etc/{name}\", \"w\")\n",
		"open(\"/etc/passwd\", mode)\n",
	} {
		if findings := analyze(t, src); len(findings) != 0 {
			t.Fatalf("non-literal path/mode must stay silent for %q: %v", src, findings)
		}
	}
}

func TestKeywordModeIgnored(t *testing.T) {
	// Mode as a keyword argument is not the second positional argument.
	findings := analyze(t, "open(\"/etc/passwd\", mode=\"w\")\n")
	if len(findings) != 0 {
		t.Fatalf("keyword mode is outside the rule, got %v", findings)
	}
}

func TestFindingsInDiscoveryOrder(t *testing.T) {
	src := "import socket\nimport os\nos.system(\"ls\")\nopen(\"/etc/x\", \"w\")\n"
	findings := analyze(t, src)
	got := codes(findings)
	want := []string{finding.CodeDeniedImport, finding.CodeDangerousCall, finding.CodeWriteOutsideRoot}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestLocalCallsUnattributed(t *testing.T) {
	src := "def render():\n    return 1\nrender()\n"
	if findings := analyze(t, src); len(findings) != 0 {
		t.Fatalf("plain local calls must not be flagged: %v", findings)
	}
}

func TestRelativeImportSkipsDenyCheck(t *testing.T) {
	if findings := analyze(t, "from . import helpers\nhelpers.run()\n"); len(findings) != 0 {
		t.Fatalf("relative imports have no module to deny: %v", findings)
	}
}
