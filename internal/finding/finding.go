package finding

import "fmt"

// Level is the severity of a finding.
type Level string

const (
	LevelError Level = "ERROR"
	LevelWarn  Level = "WARN"
)

// Rule codes emitted by the analyzer.
const (
	CodeSyntaxError      = "SYN001"
	CodeDeniedImport     = "IMP001"
	CodeDangerousCall    = "CAL001"
	CodeProcessSpawn     = "CAL002"
	CodeNetworkUsage     = "CAL003"
	CodeWriteOutsideRoot = "FS001"
)

// Finding is one reported policy violation or parse failure. Line is
// 1-based and Col is 0-based; both are 0 when the location is unknown.
// Findings are never mutated after creation.
type Finding struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Level   Level  `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s [%s] %s:%d:%d %s", f.Level, f.Code, f.File, f.Line, f.Col, f.Message)
}

// RunResult holds the findings of a whole gate run, in input-file order
// and then in-file discovery order.
type RunResult struct {
	Findings []Finding
}

func (r RunResult) HasError() bool {
	for _, f := range r.Findings {
		if f.Level == LevelError {
			return true
		}
	}
	return false
}

func (r RunResult) HasWarning() bool {
	for _, f := range r.Findings {
		if f.Level == LevelWarn {
			return true
		}
	}
	return false
}
