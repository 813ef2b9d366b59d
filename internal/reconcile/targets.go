package reconcile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Target is one expected event from an external target list.
type Target struct {
	ID             int64  `json:"id" yaml:"id"`
	TournamentName string `json:"tournamentName" yaml:"tournamentName"`
}

type targetFile struct {
	TargetEvents []Target `json:"targetEvents" yaml:"targetEvents"`
}

// LoadTargets reads an expected-events list. JSON and YAML files are
// accepted; both use a top-level targetEvents list.
func LoadTargets(path string) ([]Target, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "reconcile: read target list %s", path)
	}

	var tf targetFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &tf); err != nil {
			return nil, eris.Wrapf(err, "reconcile: parse yaml target list %s", path)
		}
	default:
		if err := json.Unmarshal(raw, &tf); err != nil {
			return nil, eris.Wrapf(err, "reconcile: parse json target list %s", path)
		}
	}
	return tf.TargetEvents, nil
}
