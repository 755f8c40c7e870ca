package output

import (
	"encoding/json"
	"io"
	"path/filepath"

	"scenegate/internal/finding"
	"scenegate/internal/shared/version"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
)

// sarifReport is the top-level SARIF document.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
}

var ruleCatalog = map[string]sarifRule{
	finding.CodeSyntaxError: {
		ID:               finding.CodeSyntaxError,
		Name:             "SyntaxError",
		ShortDescription: sarifMessage{Text: "The script could not be parsed."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
	},
	finding.CodeDeniedImport: {
		ID:               finding.CodeDeniedImport,
		Name:             "DisallowedImport",
		ShortDescription: sarifMessage{Text: "A module on the import denylist was imported."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
	},
	finding.CodeDangerousCall: {
		ID:               finding.CodeDangerousCall,
		Name:             "DangerousCall",
		ShortDescription: sarifMessage{Text: "Dynamic code evaluation or OS command execution was called."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
	},
	finding.CodeProcessSpawn: {
		ID:               finding.CodeProcessSpawn,
		Name:             "ProcessSpawn",
		ShortDescription: sarifMessage{Text: "The subprocess module was used to spawn a process."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
	},
	finding.CodeNetworkUsage: {
		ID:               finding.CodeNetworkUsage,
		Name:             "NetworkUsage",
		ShortDescription: sarifMessage{Text: "A networking-capable module was used."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
	},
	finding.CodeWriteOutsideRoot: {
		ID:               finding.CodeWriteOutsideRoot,
		Name:             "WriteOutsideAllowedRoots",
		ShortDescription: sarifMessage{Text: "A literal write target falls outside the sanctioned directories."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
	},
}

// WriteSARIF renders findings as a SARIF v2.1.0 document. File URIs are
// made relative to projectRoot so reports are safe to share.
func WriteSARIF(w io.Writer, projectRoot string, findings []finding.Finding) error {
	results := make([]sarifResult, 0, len(findings))
	for _, f := range findings {
		result := sarifResult{
			RuleID:  f.Code,
			Level:   sarifLevel(f.Level),
			Message: sarifMessage{Text: f.Message},
		}
		if f.File != "" {
			loc := sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{
						URI:       relativeURI(projectRoot, f.File),
						URIBaseID: "%SRCROOT%",
					},
				},
			}
			if f.Line > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{
					StartLine:   f.Line,
					StartColumn: f.Col,
				}
			}
			result.Locations = []sarifLocation{loc}
		}
		results = append(results, result)
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "scenegate",
						Version: version.Version,
						Rules:   relevantRules(findings),
					},
				},
				Results: results,
			},
		},
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// relevantRules returns catalog entries only for rules that fired, in
// rule-id order for stable output.
func relevantRules(findings []finding.Finding) []sarifRule {
	seen := make(map[string]bool)
	for _, f := range findings {
		seen[f.Code] = true
	}

	ordered := []string{
		finding.CodeSyntaxError,
		finding.CodeDeniedImport,
		finding.CodeDangerousCall,
		finding.CodeProcessSpawn,
		finding.CodeNetworkUsage,
		finding.CodeWriteOutsideRoot,
	}
	rules := make([]sarifRule, 0, len(seen))
	for _, code := range ordered {
		if seen[code] {
			rules = append(rules, ruleCatalog[code])
		}
	}
	return rules
}

func sarifLevel(level finding.Level) string {
	if level == finding.LevelWarn {
		return "warning"
	}
	return "error"
}

// relativeURI converts an absolute file path to a forward-slash relative
// URI anchored at projectRoot. If the path is already relative or
// projectRoot is empty, the original path (with forward slashes) is
// returned.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		rel, err := filepath.Rel(projectRoot, filePath)
		if err == nil {
			filePath = rel
		}
	}
	return filepath.ToSlash(filePath)
}
