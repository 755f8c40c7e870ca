package manifest

import (
	"encoding/json"
	"os"

	coreerrors "scenegate/internal/core/errors"
)

// Manifest is the render job descriptor handed to the gate by the
// preflight orchestrator. Schema validation happens upstream; only the
// fields the gate needs are decoded here.
type Manifest struct {
	Job    string `json:"job"`
	Inputs Inputs `json:"inputs"`
}

type Inputs struct {
	SourceFiles []string `json:"source_files"`
}

func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeConfigError, "read job manifest")
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeConfigError, "decode job manifest")
	}
	return &m, nil
}

// SourceFiles returns the scripts to gate, in manifest order. An empty
// list means the gate is skipped with a neutral pass.
func (m *Manifest) SourceFiles() []string {
	return m.Inputs.SourceFiles
}
