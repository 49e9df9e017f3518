// Package baseline stores finished verification runs so later runs of the
// same part can be compared against them.
package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/tidwall/buntdb"
	"golang.org/x/exp/slices"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/diag"
)

// Memory opens a store that lives only as long as the process.
const Memory = ":memory:"

const seqKey = "seq"

// ErrNoRuns is returned by Latest when a part has no stored runs.
var ErrNoRuns = errors.New("baseline: no runs stored")

// Run is one stored verification run.
type Run struct {
	ID     string       `json:"id"`
	Seq    int64        `json:"seq"`
	Report *diag.Report `json:"report"`
}

// Store is a buntdb-backed run store. Keys are run:<part>:<id>.
type Store struct {
	db *buntdb.DB
}

// Open opens or creates the store at path. Memory keeps it in memory.
func Open(path string) (*Store, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("baseline: open %s: %w", path, err)
	}
	var cfg buntdb.Config
	if err := db.ReadConfig(&cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("baseline: configure %s: %w", path, err)
	}
	cfg.SyncPolicy = buntdb.Always
	if err := db.SetConfig(cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("baseline: configure %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the store.
func (s *Store) Close() error {
	return s.db.Close()
}

func runKey(part, id string) string {
	return fmt.Sprintf("run:%s:%s", part, id)
}

// Save stores a report. A report without a run id gets a fresh one.
func (s *Store) Save(r *diag.Report) (Run, error) {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	run := Run{ID: r.RunID, Report: r}
	err := s.db.Update(func(tx *buntdb.Tx) error {
		key := runKey(r.Part, r.RunID)
		if _, err := tx.Get(key); err == nil {
			return fmt.Errorf("run %s already stored", r.RunID)
		} else if !errors.Is(err, buntdb.ErrNotFound) {
			return err
		}
		seq := int64(0)
		if v, err := tx.Get(seqKey); err == nil {
			if seq, err = strconv.ParseInt(v, 10, 64); err != nil {
				return fmt.Errorf("corrupt sequence %q: %w", v, err)
			}
		} else if !errors.Is(err, buntdb.ErrNotFound) {
			return err
		}
		seq++
		run.Seq = seq
		if _, _, err := tx.Set(seqKey, strconv.FormatInt(seq, 10), nil); err != nil {
			return err
		}
		data, err := json.Marshal(run)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(key, string(data), nil)
		return err
	})
	if err != nil {
		return Run{}, fmt.Errorf("baseline: save: %w", err)
	}
	return run, nil
}

// List returns the runs of part, oldest first.
func (s *Store) List(part string) ([]Run, error) {
	var runs []Run
	err := s.db.View(func(tx *buntdb.Tx) error {
		var derr error
		err := tx.AscendKeys(runKey(part, "*"), func(key, value string) bool {
			var run Run
			if derr = json.Unmarshal([]byte(value), &run); derr != nil {
				derr = fmt.Errorf("decode %s: %w", key, derr)
				return false
			}
			runs = append(runs, run)
			return true
		})
		if err != nil {
			return err
		}
		return derr
	})
	if err != nil {
		return nil, fmt.Errorf("baseline: list %s: %w", part, err)
	}
	slices.SortFunc(runs, func(a, b Run) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})
	return runs, nil
}

// Latest returns the most recent run of part.
func (s *Store) Latest(part string) (Run, error) {
	runs, err := s.List(part)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, fmt.Errorf("%w for %s", ErrNoRuns, part)
	}
	return runs[len(runs)-1], nil
}

// Get returns a run by id.
func (s *Store) Get(part, id string) (Run, error) {
	var run Run
	err := s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(runKey(part, id))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(v), &run)
	})
	if err != nil {
		return Run{}, fmt.Errorf("baseline: get %s %s: %w", part, id, err)
	}
	return run, nil
}

// Delta is the difference between two runs, by rendered diagnostic.
type Delta struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// Empty reports whether the runs matched.
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Diff compares two diagnostic streams as multisets of rendered lines.
// Added keeps the order of cur and Removed the order of old.
func Diff(old, cur []diag.Diagnostic) Delta {
	var d Delta
	d.Added = subtract(cur, old)
	d.Removed = subtract(old, cur)
	return d
}

// subtract returns the lines of a not matched by a line of b.
func subtract(a, b []diag.Diagnostic) []string {
	left := make(map[string]int, len(b))
	for _, x := range b {
		left[x.String()]++
	}
	var out []string
	for _, x := range a {
		s := x.String()
		if left[s] > 0 {
			left[s]--
			continue
		}
		out = append(out, s)
	}
	return out
}
