package analyzer

import (
	"fmt"
	"os"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"scenegate/internal/finding"
)

// Analyzer statically inspects one Python scene script at a time. It is
// a pure function of the file content plus the immutable Policy, so a
// single Analyzer may be shared by concurrent workers.
type Analyzer struct {
	pool   *parserPool
	policy Policy
}

func New(policy Policy) *Analyzer {
	return &Analyzer{
		pool:   newParserPool(PythonLanguage()),
		policy: policy,
	}
}

// AnalyzeFile reads and analyzes a single script. Failures are local to
// the file: an unreadable or unparsable script yields exactly one
// SYN001 finding and never aborts sibling analyses.
func (a *Analyzer) AnalyzeFile(path string) []finding.Finding {
	source, err := os.ReadFile(path)
	if err != nil {
		return []finding.Finding{{
			File:    path,
			Level:   finding.LevelError,
			Code:    finding.CodeSyntaxError,
			Message: fmt.Sprintf("SyntaxError: cannot read source: %v", err),
		}}
	}
	return a.AnalyzeSource(path, source)
}

// AnalyzeSource parses the script and runs the rule walk. On a syntax
// error the single SYN001 finding carries the first error location the
// parser reports, and no further rules run for the file.
func (a *Analyzer) AnalyzeSource(path string, source []byte) []finding.Finding {
	sp := a.pool.get()
	defer a.pool.put(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		return []finding.Finding{{
			File:    path,
			Level:   finding.LevelError,
			Code:    finding.CodeSyntaxError,
			Message: "SyntaxError: parse failed",
		}}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return []finding.Finding{syntaxFinding(path, root)}
	}

	w := newRuleWalker(path, a.policy, source)
	w.walk(root)
	return w.findings
}

func syntaxFinding(path string, root *sitter.Node) finding.Finding {
	f := finding.Finding{
		File:    path,
		Level:   finding.LevelError,
		Code:    finding.CodeSyntaxError,
		Message: "SyntaxError: invalid syntax",
	}

	if node := firstErrorNode(root); node != nil {
		pos := node.StartPosition()
		f.Line = int(pos.Row) + 1
		f.Col = int(pos.Column)
		if node.IsMissing() {
			f.Message = fmt.Sprintf("SyntaxError: missing %s", node.Kind())
		}
	}
	return f
}

func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstErrorNode(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
