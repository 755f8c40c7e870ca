package analyzer

import (
	"path/filepath"
	"strings"
)

// dangerousCalls are (module, function) pairs that are always rejected:
// dynamic code evaluation and OS-level command execution. Bare eval/exec
// resolve to the synthetic "builtins" module.
var dangerousCalls = map[[2]string]struct{}{
	{"os", "system"}:     {},
	{"os", "popen"}:      {},
	{"builtins", "eval"}: {},
	{"builtins", "exec"}: {},
}

// networkModules are top-level module names whose calls are rejected as
// network usage regardless of the specific function.
var networkModules = map[string]struct{}{
	"socket":   {},
	"requests": {},
}

// processModule is the top-level module whose calls are rejected as
// process spawning regardless of the specific function.
const processModule = "subprocess"

// Policy is the immutable per-run configuration shared by all file
// analyses: the import denylist and the two sanctioned write roots.
type Policy struct {
	denyImports   map[string]struct{}
	projectRoot   string
	artifactsRoot string
}

func NewPolicy(denyImports []string, projectRoot, artifactsRoot string) Policy {
	deny := make(map[string]struct{}, len(denyImports))
	for _, mod := range denyImports {
		deny[mod] = struct{}{}
	}
	return Policy{
		denyImports:   deny,
		projectRoot:   filepath.Clean(projectRoot),
		artifactsRoot: filepath.Clean(artifactsRoot),
	}
}

func (p Policy) importDenied(topModule string) bool {
	_, denied := p.denyImports[topModule]
	return denied
}

// writeAllowed reports whether a literal write target is acceptable. The
// path is normalized lexically only; the filesystem is never consulted.
// Any non-absolute path is accepted, including one that climbs out of
// the roots with ".." segments. That matches the published contract of
// the gate and is intentionally not tightened here.
func (p Policy) writeAllowed(literalPath string) bool {
	norm := filepath.Clean(literalPath)
	return strings.HasPrefix(norm, p.projectRoot) ||
		strings.HasPrefix(norm, p.artifactsRoot) ||
		strings.HasPrefix(norm, "./") ||
		!filepath.IsAbs(norm)
}

// topSegment returns the text before the first "." of a dotted module
// path, or the whole path when undotted.
func topSegment(module string) string {
	if i := strings.IndexByte(module, '.'); i >= 0 {
		return module[:i]
	}
	return module
}
