package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"pairhunter/pkg/model"
)

// ErrNoReports is returned by Latest when nothing has been saved yet
var ErrNoReports = errors.New("no reports saved")

const stampLayout = "20060102T150405Z"

// Store persists timestamped reports into a directory, one file per run
type Store struct {
	mu     sync.RWMutex
	dir    string
	format Format
	log    zerolog.Logger
}

// NewStore creates a report store rooted at dir
func NewStore(dir string, format Format, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Store{
		dir:    dir,
		format: format,
		log:    log.With().Str("component", "reports").Logger(),
	}, nil
}

// Dir returns the store directory
func (s *Store) Dir() string { return s.dir }

// Save writes r as <universe>-<UTC start time>.<ext> and returns the path
func (s *Store) Save(r *model.ScreenReport) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := fmt.Sprintf("%s-%s.%s", fileSafe(r.Universe), r.StartedAt.UTC().Format(stampLayout), s.format.Ext())
	path := filepath.Join(s.dir, name)
	if err := WriteFile(path, r); err != nil {
		return "", fmt.Errorf("saving report: %w", err)
	}

	s.log.Info().
		Str("path", path).
		Str("run_id", r.RunID).
		Int("signals", r.SignalCount()).
		Msg("Report saved")
	return path, nil
}

// List returns saved report file names for universe, oldest first.
// An empty universe lists every report.
func (s *Store) List(universe string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := "*"
	if universe != "" {
		prefix = fileSafe(universe)
	}
	pattern := fmt.Sprintf("%s-*.{json,yaml,msgpack}", prefix)
	names, err := doublestar.Glob(os.DirFS(s.dir), pattern)
	if err != nil {
		return nil, err
	}
	// names share a prefix per universe, so the stamp orders them
	sort.Slice(names, func(i, j int) bool {
		si, sj := stamp(names[i]), stamp(names[j])
		if si != sj {
			return si < sj
		}
		return names[i] < names[j]
	})
	return names, nil
}

// Latest loads the most recent report for universe
func (s *Store) Latest(universe string) (*model.ScreenReport, error) {
	names, err := s.List(universe)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrNoReports
	}
	return ReadFile(filepath.Join(s.dir, names[len(names)-1]))
}

func stamp(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if i := strings.LastIndex(base, "-"); i >= 0 {
		return base[i+1:]
	}
	return base
}

func fileSafe(s string) string {
	if s == "" {
		return "custom"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, s)
}
