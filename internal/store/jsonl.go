package store

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// SchemaVersion is stamped onto every persisted record and artifact so the
// on-disk schema can evolve independently of the business fields. It is
// stripped again on read.
const SchemaVersion = "1.0"

// stampVersion marshals v and injects the schema version tag as a sibling
// of the record's own fields.
func stampVersion(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal record")
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, eris.Wrap(err, "store: record is not an object")
	}
	m["version"] = json.RawMessage(strconv.Quote(SchemaVersion))
	out, err := json.Marshal(m)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal envelope")
	}
	return out, nil
}

// ReadJSONL loads every record from a JSONL file. A missing file yields an
// empty slice; blank lines are skipped. The version tag is stripped by
// virtue of not being a field of T.
func ReadJSONL[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var out []T
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rec T
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, eris.Wrapf(err, "store: %s:%d: decode record", path, line)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "store: scan %s", path)
	}
	return out, nil
}

// AppendJSONL appends records to a JSONL file, one version-stamped record
// per line, creating parent directories as needed.
func AppendJSONL[T any](path string, recs []T) error {
	if len(recs) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "store: mkdir for %s", path)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "store: open %s for append", path)
	}
	defer f.Close() //nolint:errcheck

	for _, rec := range recs {
		line, err := stampVersion(rec)
		if err != nil {
			return err
		}
		if _, err := f.Write(append(line, '\n')); err != nil {
			return eris.Wrapf(err, "store: append to %s", path)
		}
	}
	return f.Sync()
}

// WriteJSONLAtomic replaces the whole JSONL file via temp-file + rename, so
// a crash mid-rewrite can never truncate the log.
func WriteJSONLAtomic[T any](path string, recs []T) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "store: mkdir for %s", path)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "store: create temp for %s", path)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	for _, rec := range recs {
		line, err := stampVersion(rec)
		if err != nil {
			tmp.Close() //nolint:errcheck
			return err
		}
		if _, err := tmp.Write(append(line, '\n')); err != nil {
			tmp.Close() //nolint:errcheck
			return eris.Wrapf(err, "store: write temp for %s", path)
		}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrapf(err, "store: sync temp for %s", path)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "store: close temp for %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "store: rename temp over %s", path)
	}
	return nil
}

// ReadIDSet loads a one-id-per-line completion log into a membership set.
// A missing file yields an empty set.
func ReadIDSet(path string) (map[int64]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[int64]struct{}{}, nil
		}
		return nil, eris.Wrapf(err, "store: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	out := map[int64]struct{}{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "store: %s: bad id %q", path, text)
		}
		out[id] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "store: scan %s", path)
	}
	return out, nil
}

// AppendID appends one id to a completion log and flushes it before
// returning, so the log stays consistent with exactly the finished units.
func AppendID(path string, id int64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "store: mkdir for %s", path)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "store: open %s for append", path)
	}
	defer f.Close() //nolint:errcheck

	if _, err := f.WriteString(strconv.FormatInt(id, 10) + "\n"); err != nil {
		return eris.Wrapf(err, "store: append to %s", path)
	}
	return f.Sync()
}
