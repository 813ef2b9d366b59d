package reconcile

import (
	"strings"

	"golang.org/x/text/cases"
)

var nameSanitizer = strings.NewReplacer(" ", "_", "/", "-", "／", "-")

var foldCaser = cases.Fold()

// NormalizeName canonicalizes a tournament name for index lookups: spaces
// collapse to underscores, path separators to hyphens, the result is case
// folded, and leading/trailing separators fall away. Pure and idempotent,
// so repeated reconciliation runs over unchanged data produce identical
// discrepancy sets.
func NormalizeName(name string) string {
	out := foldCaser.String(nameSanitizer.Replace(name))
	return strings.Trim(out, "_")
}
