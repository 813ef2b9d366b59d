package reconcile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Discrepancy reasons.
const (
	ReasonNameMissing = "tournamentName missing"
	ReasonNoMatch     = "no matching directory"
)

// Discrepancy is one target entry the local dataset cannot account for.
type Discrepancy struct {
	Target Target `json:"target"`
	Reason string `json:"reason"`
}

// FindMissing compares the target list against the directory index. Pure:
// the same targets and index always produce the same discrepancies, in
// target-list order.
func FindMissing(targets []Target, idx Index) []Discrepancy {
	var missing []Discrepancy
	for _, t := range targets {
		if t.TournamentName == "" {
			missing = append(missing, Discrepancy{Target: t, Reason: ReasonNameMissing})
			continue
		}
		if _, ok := idx[NormalizeName(t.TournamentName)]; !ok {
			missing = append(missing, Discrepancy{Target: t, Reason: ReasonNoMatch})
		}
	}
	return missing
}

// MissingReport is the persisted missing_events.json shape, consumed by
// the backfill command.
type MissingReport struct {
	Source        string        `json:"source"`
	EventsRoot    string        `json:"events_root"`
	MissingEvents []Discrepancy `json:"missing_events"`
}

// WriteReport persists the missing-events report, or removes a stale one
// when nothing is missing.
func WriteReport(path, source, eventsRoot string, missing []Discrepancy) error {
	if len(missing) == 0 {
		return RemoveReport(path)
	}
	report := MissingReport{Source: source, EventsRoot: eventsRoot, MissingEvents: missing}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return eris.Wrap(err, "reconcile: marshal report")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "reconcile: mkdir for %s", path)
	}
	if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
		return eris.Wrapf(err, "reconcile: write report %s", path)
	}
	return nil
}

// ReadReport loads a previously written missing-events report.
func ReadReport(path string) (*MissingReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "reconcile: read report %s", path)
	}
	var report MissingReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, eris.Wrapf(err, "reconcile: parse report %s", path)
	}
	return &report, nil
}

// RemoveReport deletes the report file if present.
func RemoveReport(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "reconcile: remove report %s", path)
	}
	return nil
}

// Repairer ingests one event by id. The ingestion pipeline satisfies this.
type Repairer interface {
	IngestByID(ctx context.Context, eventID int64) error
}

// RepairSummary tallies one repair batch.
type RepairSummary struct {
	Attempted    int
	Repaired     int
	Failed       int
	Unresolvable int
}

// Repair runs the repairer for every discrepancy with a resolvable id.
// Entries without an id are reported but never auto-repaired. Failures are
// logged and counted; the caller re-runs FindMissing afterwards to decide
// the exit status.
func Repair(ctx context.Context, r Repairer, missing []Discrepancy) *RepairSummary {
	summary := &RepairSummary{}
	for _, d := range missing {
		if d.Target.ID == 0 {
			summary.Unresolvable++
			continue
		}
		summary.Attempted++
		if err := r.IngestByID(ctx, d.Target.ID); err != nil {
			zap.L().Error("repair failed",
				zap.Int64("event_id", d.Target.ID),
				zap.String("tournament", d.Target.TournamentName),
				zap.Error(err),
			)
			summary.Failed++
			continue
		}
		summary.Repaired++
	}
	return summary
}
