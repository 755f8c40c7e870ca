package analyzer

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"scenegate/internal/finding"
)

// ruleWalker performs one pre-order depth-first pass over a parsed
// scene script, recording import aliases as it encounters them and
// emitting findings for rule violations. State lives for a single file.
type ruleWalker struct {
	path     string
	policy   Policy
	source   []byte
	aliases  aliasTable
	findings []finding.Finding
}

func newRuleWalker(path string, policy Policy, source []byte) *ruleWalker {
	return &ruleWalker{
		path:    path,
		policy:  policy,
		source:  source,
		aliases: make(aliasTable),
	}
}

func (w *ruleWalker) walk(node *sitter.Node) {
	switch node.Kind() {
	case "import_statement":
		w.checkImport(node)
	case "import_from_statement":
		w.checkImportFrom(node)
	case "call":
		w.checkCall(node)
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		w.walk(node.Child(i))
	}
}

func (w *ruleWalker) error(node *sitter.Node, code, msg string) {
	pos := node.StartPosition()
	w.findings = append(w.findings, finding.Finding{
		File:    w.path,
		Line:    int(pos.Row) + 1,
		Col:     int(pos.Column),
		Level:   finding.LevelError,
		Code:    code,
		Message: msg,
	})
}

// checkImport handles "import a.b" and "import a.b as c" clauses. The
// alias is recorded even when the import is denied so that later uses of
// the name are still attributed in diagnostics.
func (w *ruleWalker) checkImport(node *sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		switch child.Kind() {
		case "dotted_name", "identifier":
			module := nodeText(child, w.source)
			top := topSegment(module)
			if w.policy.importDenied(top) {
				w.error(node, finding.CodeDeniedImport, fmt.Sprintf("Disallowed import: '%s'", top))
			}
			w.aliases[top] = module

		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			module := nodeText(nameNode, w.source)
			top := topSegment(module)
			if w.policy.importDenied(top) {
				w.error(node, finding.CodeDeniedImport, fmt.Sprintf("Disallowed import: '%s'", top))
			}
			if aliasNode := child.ChildByFieldName("alias"); aliasNode != nil {
				w.aliases[nodeText(aliasNode, w.source)] = module
			} else {
				w.aliases[top] = module
			}
		}
	}
}

// checkImportFrom handles "from a.b import c [as d]". The denylist is
// checked against the source module; every bound name maps back to that
// module so aliased members resolve in later calls.
func (w *ruleWalker) checkImportFrom(node *sitter.Node) {
	module := ""
	if modNode := node.ChildByFieldName("module_name"); modNode != nil && modNode.Kind() != "relative_import" {
		module = nodeText(modNode, w.source)
		if w.policy.importDenied(topSegment(module)) {
			w.error(node, finding.CodeDeniedImport, fmt.Sprintf("Disallowed import: '%s'", topSegment(module)))
		}
	}

	// Bound names follow the "import" keyword; the module name before it
	// is also a dotted_name and must be skipped.
	seenImport := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "import" {
			seenImport = true
			continue
		}
		if !seenImport {
			continue
		}

		switch child.Kind() {
		case "dotted_name", "identifier":
			name := nodeText(child, w.source)
			w.bindFromImport(name, name, module)
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			name := nodeText(nameNode, w.source)
			bound := name
			if aliasNode := child.ChildByFieldName("alias"); aliasNode != nil {
				bound = nodeText(aliasNode, w.source)
			}
			w.bindFromImport(bound, name, module)
		}
	}
}

func (w *ruleWalker) bindFromImport(bound, name, module string) {
	target := module
	if target == "" {
		target = name
	}
	w.aliases[bound] = target
}

func (w *ruleWalker) checkCall(node *sitter.Node) {
	target := resolveCallTarget(node.ChildByFieldName("function"), w.source, w.aliases)

	if target.hasModule {
		if _, dangerous := dangerousCalls[[2]string{target.module, target.fn}]; dangerous {
			w.error(node, finding.CodeDangerousCall, fmt.Sprintf("Dangerous call: %s.%s", target.module, target.fn))
		}

		top := topSegment(target.module)
		if top == processModule {
			w.error(node, finding.CodeProcessSpawn, "Process spawning via 'subprocess' is disallowed")
		}
		if _, network := networkModules[top]; network {
			w.error(node, finding.CodeNetworkUsage, fmt.Sprintf("Network usage via '%s' is disallowed", target.module))
		}
	}

	if !target.hasModule && target.fn == "open" {
		w.checkOpenCall(node)
	}
}

// checkOpenCall applies the write-path rule to a builtin open() call.
// The rule only fires when both the path and the mode are compile-time
// string literals; anything dynamic is undecidable and stays silent.
func (w *ruleWalker) checkOpenCall(node *sitter.Node) {
	args := positionalArgs(node.ChildByFieldName("arguments"))
	if len(args) == 0 {
		return
	}

	writeMode := false
	if len(args) >= 2 {
		if mode, ok := stringLiteral(args[1], w.source); ok {
			writeMode = strings.ContainsAny(mode, "wax")
		}
	}
	if !writeMode {
		return
	}

	pathVal, ok := stringLiteral(args[0], w.source)
	if !ok {
		return
	}
	if !w.policy.writeAllowed(pathVal) {
		w.error(node, finding.CodeWriteOutsideRoot, fmt.Sprintf("Write outside allowed dirs: '%s'", pathVal))
	}
}

// positionalArgs returns the positional arguments of a call, in order.
func positionalArgs(argList *sitter.Node) []*sitter.Node {
	if argList == nil {
		return nil
	}
	var args []*sitter.Node
	for i := uint(0); i < argList.ChildCount(); i++ {
		child := argList.Child(i)
		if !child.IsNamed() {
			continue
		}
		switch child.Kind() {
		case "keyword_argument", "comment":
			continue
		}
		args = append(args, child)
	}
	return args
}

// stringLiteral extracts the value of a plain string literal. F-strings
// with interpolations, byte strings and concatenations are not literals.
// Escape sequences are kept as raw text; the write-path rule only needs
// stable prefixes.
func stringLiteral(node *sitter.Node, source []byte) (string, bool) {
	if node == nil || node.Kind() != "string" {
		return "", false
	}

	var b strings.Builder
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "string_start":
			if strings.ContainsAny(nodeText(child, source), "bB") {
				return "", false
			}
		case "string_end":
		case "string_content", "escape_sequence":
			b.WriteString(nodeText(child, source))
		default:
			// interpolation or anything else dynamic
			return "", false
		}
	}
	return b.String(), true
}
