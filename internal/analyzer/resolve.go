package analyzer

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// aliasTable maps a locally bound name to the canonical dotted module
// path it was imported from. One table exists per file analysis; later
// bindings of the same name overwrite earlier ones.
type aliasTable map[string]string

// callTarget is the best-effort resolution of a call's callee. The
// module is meaningful only when hasModule is set; an unresolvable base
// stays absent and is never conflated with an empty module name.
type callTarget struct {
	module    string
	hasModule bool
	fn        string
}

// resolveCallTarget resolves the callee of a call expression. Bare
// eval/exec resolve to the synthetic "builtins" module, bare open to a
// module-less builtin, and aliased names back through the alias table.
// Resolution is purely syntactic: no reassignment tracking, no control
// flow.
func resolveCallTarget(node *sitter.Node, source []byte, aliases aliasTable) callTarget {
	if node == nil {
		return callTarget{}
	}

	switch node.Kind() {
	case "identifier":
		name := nodeText(node, source)
		switch name {
		case "eval", "exec":
			return callTarget{module: "builtins", hasModule: true, fn: name}
		case "open":
			return callTarget{fn: "open"}
		}
		if module, ok := aliases[name]; ok {
			// Module known, specific function unresolved.
			return callTarget{module: module, hasModule: true}
		}
		return callTarget{fn: name}

	case "attribute":
		attr := node.ChildByFieldName("attribute")
		if attr == nil {
			return callTarget{}
		}
		base, ok := resolveBase(node.ChildByFieldName("object"), source, aliases)
		if !ok {
			return callTarget{}
		}
		return callTarget{module: base, hasModule: true, fn: nodeText(attr, source)}
	}

	return callTarget{}
}

// resolveBase resolves the base of an attribute chain to a dotted path,
// mapping bare names through the alias table. Bases that are not name or
// attribute nodes (calls, subscripts, ...) report ok=false.
func resolveBase(node *sitter.Node, source []byte, aliases aliasTable) (string, bool) {
	if node == nil {
		return "", false
	}

	switch node.Kind() {
	case "identifier":
		name := nodeText(node, source)
		if module, ok := aliases[name]; ok {
			return module, true
		}
		return name, true

	case "attribute":
		attr := node.ChildByFieldName("attribute")
		if attr == nil {
			return "", false
		}
		base, ok := resolveBase(node.ChildByFieldName("object"), source, aliases)
		if !ok || base == "" {
			return nodeText(attr, source), true
		}
		return base + "." + nodeText(attr, source), true
	}

	return "", false
}

func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
