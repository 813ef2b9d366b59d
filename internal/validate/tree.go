package validate

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smashdata/startgg-harvester/internal/model"
)

// ValidateTree validates every event directory under the events root.
// Directories are discovered by their attr.json. The scan is local disk
// only, so it fans out over a bounded errgroup; the remote API is never
// involved.
func (v *Validator) ValidateTree(ctx context.Context, eventsRoot string) (*Report, error) {
	var dirs []string
	err := filepath.WalkDir(eventsRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == model.AttrFile {
			dirs = append(dirs, filepath.Dir(path))
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "validate: walk events root %s", eventsRoot)
	}

	report := &Report{}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.cfg.Concurrency)
	for _, dir := range dirs {
		dir := dir
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			sub := v.ValidateEventDir(dir)
			mu.Lock()
			report.Merge(sub)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "validate: tree scan")
	}

	zap.L().Info("validation finished",
		zap.Int("events", len(dirs)),
		zap.Int("errors", len(report.Errors)),
		zap.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}
