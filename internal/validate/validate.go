package validate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/smashdata/startgg-harvester/internal/config"
	"github.com/smashdata/startgg-harvester/internal/model"
)

// Finding is one validation result tied to a path.
type Finding struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Report collects everything a validation pass found. The scan never
// aborts mid-way; a report always covers the full input.
type Report struct {
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
}

func (r *Report) errorf(path, format string, args ...any) {
	r.Errors = append(r.Errors, Finding{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) warnf(path, format string, args ...any) {
	r.Warnings = append(r.Warnings, Finding{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Merge folds another report into this one.
func (r *Report) Merge(other *Report) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Failed reports whether the findings amount to a failing exit status.
// Strict mode promotes warnings to errors.
func (r *Report) Failed(strict bool) bool {
	if len(r.Errors) > 0 {
		return true
	}
	return strict && len(r.Warnings) > 0
}

// Validator checks event directories against the artifact schema and the
// cross-referential consistency thresholds.
type Validator struct {
	cfg config.ValidateConfig
}

// New builds a Validator, filling zero thresholds with the defaults.
func New(cfg config.ValidateConfig) *Validator {
	if cfg.NullUserRatio <= 0 {
		cfg.NullUserRatio = 0.2
	}
	if cfg.NullSlotRatio <= 0 {
		cfg.NullSlotRatio = 0.2
	}
	if cfg.UnknownRefRatio <= 0 {
		cfg.UnknownRefRatio = 0.1
	}
	if cfg.UnknownRefMatchFloor <= 0 {
		cfg.UnknownRefMatchFloor = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Validator{cfg: cfg}
}

// Required attribute keys. Validation checks key presence, not values;
// nullable fields legitimately hold null.
var attrRequiredKeys = []string{
	"event_id", "tournament_name", "event_name", "region", "place",
	"num_entrants", "offline", "status", "timestamp",
}

var placeRequiredKeys = []string{
	"country_code", "city", "lat", "lng", "venue_name",
	"timezone", "postal_code", "venue_address", "maps_place_id",
}

// ValidateEventDir checks one event directory and reports everything wrong
// with it.
func (v *Validator) ValidateEventDir(dir string) *Report {
	report := &Report{}

	for _, name := range model.RequiredEventFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			report.errorf(dir, "missing required file %s", name)
		}
	}

	numEntrants, entrantsKnown := v.checkAttr(dir, report)
	standingIDs, standingsLen := v.checkStandings(dir, numEntrants, entrantsKnown, report)
	v.checkSeeds(dir, numEntrants, entrantsKnown, report)
	v.checkMatches(dir, standingIDs, standingsLen, report)

	return report
}

// checkAttr validates attr.json and returns the declared entrant count.
// entrantsKnown is false when the attribute file is missing or malformed.
func (v *Validator) checkAttr(dir string, report *Report) (int, bool) {
	path := filepath.Join(dir, model.AttrFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		report.errorf(path, "attr is not a JSON object: %v", err)
		return 0, false
	}
	for _, key := range attrRequiredKeys {
		if _, ok := fields[key]; !ok {
			report.errorf(path, "attr missing required field %q", key)
		}
	}
	if placeRaw, ok := fields["place"]; ok {
		var place map[string]json.RawMessage
		if err := json.Unmarshal(placeRaw, &place); err != nil {
			report.errorf(path, "place is not a JSON object: %v", err)
		} else {
			for _, key := range placeRequiredKeys {
				if _, ok := place[key]; !ok {
					report.errorf(path, "place missing required field %q", key)
				}
			}
		}
	}

	numRaw, ok := fields["num_entrants"]
	if !ok {
		return 0, false
	}
	var num int
	if err := json.Unmarshal(numRaw, &num); err != nil {
		report.errorf(path, "num_entrants is not a number")
		return 0, false
	}
	return num, true
}

// loadListContainer reads a list-shaped artifact. A missing file yields
// (nil, false) without a finding; the required-file check already covers
// existence.
func loadListContainer(path string, report *Report) ([]json.RawMessage, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var container struct {
		Data *[]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &container); err != nil || container.Data == nil {
		report.errorf(path, "artifact payload is not list-shaped")
		return nil, false
	}
	return *container.Data, true
}

func (v *Validator) checkStandings(dir string, numEntrants int, entrantsKnown bool, report *Report) (map[int64]struct{}, int) {
	path := filepath.Join(dir, model.StandingsFile)
	rows, ok := loadListContainer(path, report)
	if !ok {
		return nil, 0
	}
	if len(rows) == 0 && (!entrantsKnown || numEntrants > 0) {
		report.errorf(path, "standings empty with declared entrant count %s", describeCount(numEntrants, entrantsKnown))
	}
	if len(rows) == 0 {
		return nil, 0
	}

	ids := make(map[int64]struct{})
	nullUsers := 0
	for _, row := range rows {
		var entry model.StandingEntry
		if err := json.Unmarshal(row, &entry); err != nil {
			report.errorf(path, "unreadable standings entry: %v", err)
			continue
		}
		if entry.UserID == nil {
			nullUsers++
		} else {
			ids[*entry.UserID] = struct{}{}
		}
	}
	if nullUsers > 0 {
		ratio := float64(nullUsers) / float64(len(rows))
		if ratio > v.cfg.NullUserRatio {
			report.errorf(path, "%d of %d standings have null user ids (%.0f%%)", nullUsers, len(rows), ratio*100)
		} else {
			report.warnf(path, "%d of %d standings have null user ids (%.0f%%)", nullUsers, len(rows), ratio*100)
		}
	}
	return ids, len(rows)
}

func (v *Validator) checkSeeds(dir string, numEntrants int, entrantsKnown bool, report *Report) {
	path := filepath.Join(dir, model.SeedsFile)
	rows, ok := loadListContainer(path, report)
	if !ok {
		return
	}
	if len(rows) == 0 && (!entrantsKnown || numEntrants > 0) {
		report.errorf(path, "seeds empty with declared entrant count %s", describeCount(numEntrants, entrantsKnown))
	}
}

func (v *Validator) checkMatches(dir string, standingIDs map[int64]struct{}, standingsLen int, report *Report) {
	path := filepath.Join(dir, model.MatchesFile)
	rows, ok := loadListContainer(path, report)
	if !ok || len(rows) == 0 {
		return
	}

	nullRefs := 0
	unknownRefs := 0
	totalRefs := 0
	for _, row := range rows {
		var match model.Match
		if err := json.Unmarshal(row, &match); err != nil {
			report.errorf(path, "unreadable match entry: %v", err)
			continue
		}
		for _, ref := range []*int64{match.WinnerID, match.LoserID} {
			totalRefs++
			if ref == nil {
				nullRefs++
				continue
			}
			if _, known := standingIDs[*ref]; !known && standingsLen > 0 {
				unknownRefs++
			}
		}
	}
	if totalRefs == 0 {
		return
	}

	if nullRefs > 0 {
		ratio := float64(nullRefs) / float64(totalRefs)
		if ratio > v.cfg.NullSlotRatio {
			report.errorf(path, "%d of %d match slot references are null (%.0f%%)", nullRefs, totalRefs, ratio*100)
		} else {
			report.warnf(path, "%d of %d match slot references are null (%.0f%%)", nullRefs, totalRefs, ratio*100)
		}
	}
	if unknownRefs > 0 {
		ratio := float64(unknownRefs) / float64(totalRefs)
		// Tiny events produce noisy ratios; the floor keeps them soft.
		if len(rows) >= v.cfg.UnknownRefMatchFloor && ratio > v.cfg.UnknownRefRatio {
			report.errorf(path, "%d of %d match references point outside standings (%.0f%%)", unknownRefs, totalRefs, ratio*100)
		} else {
			report.warnf(path, "%d of %d match references point outside standings (%.0f%%)", unknownRefs, totalRefs, ratio*100)
		}
	}
}

func describeCount(n int, known bool) string {
	if !known {
		return "unknown"
	}
	return fmt.Sprintf("%d", n)
}
