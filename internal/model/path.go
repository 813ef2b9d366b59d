package model

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Artifact file names expected under every event directory.
const (
	AttrFile      = "attr.json"
	MatchesFile   = "matches.json"
	StandingsFile = "standings.json"
	SeedsFile     = "seeds.json"
)

// RequiredEventFiles lists the artifacts an event directory must contain to
// count as fully downloaded.
var RequiredEventFiles = []string{AttrFile, MatchesFile, StandingsFile, SeedsFile}

var pathSanitizer = strings.NewReplacer(" ", "_", "/", "-", "／", "-")

// SanitizePathSegment makes a display name safe to use as one directory
// component: spaces become underscores, path separators become hyphens.
func SanitizePathSegment(name string) string {
	return pathSanitizer.Replace(name)
}

// DateParts splits an epoch-second timestamp into zero-padded UTC
// year/month/day strings.
func DateParts(timestamp int64) (year, month, day string) {
	t := time.Unix(timestamp, 0).UTC()
	return fmt.Sprintf("%04d", t.Year()), fmt.Sprintf("%02d", int(t.Month())), fmt.Sprintf("%02d", t.Day())
}

// EventDir derives the storage path for an event:
// <root>/<region>/<year>/<month>/<day>/<tournament>/<event>. The path is a
// human-readable cache of the event id, never the authoritative key.
func EventDir(root string, countryCode *string, timestamp int64, tournamentName, eventName string) string {
	region := SanitizePathSegment(RegionFromCountry(countryCode))
	year, month, day := DateParts(timestamp)
	return filepath.Join(root,
		region, year, month, day,
		SanitizePathSegment(tournamentName),
		SanitizePathSegment(eventName),
	)
}

// MatchesKeyword reports whether the event name contains any of the given
// keywords, comparing with spaces collapsed to underscores and case folded.
// Used to filter out side brackets (doubles, squad strike, other titles).
func MatchesKeyword(eventName string, keywords []string) bool {
	name := strings.ToLower(strings.ReplaceAll(eventName, " ", "_"))
	for _, kw := range keywords {
		k := strings.ToLower(strings.ReplaceAll(kw, " ", "_"))
		if k != "" && strings.Contains(name, k) {
			return true
		}
	}
	return false
}
