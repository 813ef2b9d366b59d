package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/smashdata/startgg-harvester/internal/model"
)

// ListContainer is the wrapper for list-shaped artifacts:
// {"data":[...],"version":"1.0"}.
type ListContainer[T any] struct {
	Version string `json:"version"`
	Data    []T    `json:"data"`
}

// WriteVersionedJSON writes a flat object artifact with the schema version
// stamped in, indented for readability, creating the directory as needed.
func WriteVersionedJSON(path string, v any) error {
	stamped, err := stampVersion(v)
	if err != nil {
		return err
	}
	var indented map[string]json.RawMessage
	if err := json.Unmarshal(stamped, &indented); err != nil {
		return eris.Wrapf(err, "store: reparse %s", path)
	}
	out, err := json.MarshalIndent(indented, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "store: marshal %s", path)
	}
	return writeFile(path, append(out, '\n'))
}

func writeListContainer[T any](path string, data []T) error {
	if data == nil {
		data = []T{}
	}
	out, err := json.MarshalIndent(ListContainer[T]{Version: SchemaVersion, Data: data}, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "store: marshal %s", path)
	}
	return writeFile(path, append(out, '\n'))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "store: mkdir for %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "store: write %s", path)
	}
	return nil
}

// WriteAttr persists the event attributes artifact.
func WriteAttr(eventDir string, attr model.EventAttr) error {
	return WriteVersionedJSON(filepath.Join(eventDir, model.AttrFile), attr)
}

// WriteStandings persists the standings artifact.
func WriteStandings(eventDir string, entries []model.StandingEntry) error {
	return writeListContainer(filepath.Join(eventDir, model.StandingsFile), entries)
}

// WriteSeeds persists the seeds artifact.
func WriteSeeds(eventDir string, entries []model.SeedEntry) error {
	return writeListContainer(filepath.Join(eventDir, model.SeedsFile), entries)
}

// WriteMatches persists the matches artifact.
func WriteMatches(eventDir string, matches []model.Match) error {
	return writeListContainer(filepath.Join(eventDir, model.MatchesFile), matches)
}

// EventFilesComplete reports whether every required artifact exists under
// the event directory.
func EventFilesComplete(eventDir string) bool {
	for _, name := range model.RequiredEventFiles {
		if _, err := os.Stat(filepath.Join(eventDir, name)); err != nil {
			return false
		}
	}
	return true
}
