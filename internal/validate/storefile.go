package validate

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"

	"github.com/smashdata/startgg-harvester/internal/model"
)

// ValidateStoreFile checks the tournament log line by line: every line must
// parse, carry an id, and reference event paths that still exist. Findings
// accumulate; the scan never stops at the first bad line.
func (v *Validator) ValidateStoreFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Report{}, nil
		}
		return nil, eris.Wrapf(err, "validate: open store file %s", path)
	}
	defer f.Close() //nolint:errcheck

	report := &Report{}
	seen := make(map[int64]int)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		at := fmt.Sprintf("%s:%d", path, lineNo)

		var t model.Tournament
		if err := json.Unmarshal(line, &t); err != nil {
			report.errorf(at, "unparseable tournament line: %v", err)
			continue
		}
		if t.TournamentID == 0 {
			report.errorf(at, "tournament line without id")
			continue
		}
		if prev, dup := seen[t.TournamentID]; dup {
			report.errorf(at, "duplicate tournament %d (first at line %d)", t.TournamentID, prev)
		} else {
			seen[t.TournamentID] = lineNo
		}

		if len(t.Events) == 0 {
			report.warnf(at, "tournament %d has no events", t.TournamentID)
		}
		for _, ev := range t.Events {
			if info, err := os.Stat(ev.Path); err != nil || !info.IsDir() {
				report.errorf(at, "event %d path missing: %s", ev.EventID, ev.Path)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "validate: read store file %s", path)
	}
	return report, nil
}
