package reconcile

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Index maps normalized tournament directory names to the storage paths
// that carry them. Names collide across regions and dates, so one name can
// map to several paths.
type Index map[string][]string

// BuildIndex scans the events tree and indexes tournament directories.
// The tree layout is <root>/<region>/<year>/<month>/<day>/<tournament>;
// tournament directories sit at depth five.
func BuildIndex(eventsRoot string) (Index, error) {
	idx := make(Index)
	regions, err := readDirs(eventsRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, eris.Wrapf(err, "reconcile: read events root %s", eventsRoot)
	}

	for _, region := range regions {
		years, err := readDirs(filepath.Join(eventsRoot, region))
		if err != nil {
			return nil, eris.Wrapf(err, "reconcile: read region %s", region)
		}
		for _, year := range years {
			months, err := readDirs(filepath.Join(eventsRoot, region, year))
			if err != nil {
				return nil, eris.Wrapf(err, "reconcile: read year %s/%s", region, year)
			}
			for _, month := range months {
				days, err := readDirs(filepath.Join(eventsRoot, region, year, month))
				if err != nil {
					return nil, eris.Wrapf(err, "reconcile: read month %s/%s/%s", region, year, month)
				}
				for _, day := range days {
					dayDir := filepath.Join(eventsRoot, region, year, month, day)
					tournaments, err := readDirs(dayDir)
					if err != nil {
						return nil, eris.Wrapf(err, "reconcile: read day %s", dayDir)
					}
					for _, name := range tournaments {
						key := NormalizeName(name)
						idx[key] = append(idx[key], filepath.Join(dayDir, name))
					}
				}
			}
		}
	}
	return idx, nil
}

func readDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
