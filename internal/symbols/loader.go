package symbols

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Selection picks a screening universe: a named universe, an explicit list, or
// a file with one symbol per line. Exactly one must be set.
type Selection struct {
	Universe string   `json:"universe,omitempty" yaml:"universe"`
	Symbols  []string `json:"symbols,omitempty" yaml:"symbols"`
	File     string   `json:"-" yaml:"symbols_file"`
}

// Resolved is the deduplicated symbol set plus a label for reports
type Resolved struct {
	Name    string
	Symbols []string
}

// Resolve expands sel into a sorted, deduplicated symbol list
func Resolve(sel Selection) (*Resolved, error) {
	set := 0
	if sel.Universe != "" {
		set++
	}
	if len(sel.Symbols) > 0 {
		set++
	}
	if sel.File != "" {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one of universe, symbols or symbols file must be given")
	}

	var (
		name string
		raw  []string
	)
	switch {
	case sel.Universe != "":
		name = strings.ToLower(sel.Universe)
		raw = GetUniverse(Universe(name))
		if raw == nil {
			return nil, fmt.Errorf("unknown universe %q", sel.Universe)
		}
	case len(sel.Symbols) > 0:
		name = "custom"
		raw = sel.Symbols
	default:
		name = sel.File
		var err error
		raw, err = LoadFile(sel.File)
		if err != nil {
			return nil, err
		}
	}

	symbols, err := normalize(raw)
	if err != nil {
		return nil, err
	}
	if len(symbols) < 2 {
		return nil, fmt.Errorf("universe %q needs at least 2 distinct symbols, got %d", name, len(symbols))
	}
	return &Resolved{Name: name, Symbols: symbols}, nil
}

// ParseList splits a comma or whitespace separated symbol list
func ParseList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// LoadFile reads one symbol per line. Blank lines and # comments are skipped,
// and anything after the first comma is ignored so exported CSVs work too.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening symbols file: %w", err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, ','); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if strings.EqualFold(line, "symbol") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading symbols file: %w", err)
	}
	return out, nil
}

func normalize(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if sym == "" || seen[sym] {
			continue
		}
		if !isValidSymbol(sym) {
			return nil, fmt.Errorf("invalid symbol %q", s)
		}
		seen[sym] = true
		out = append(out, sym)
	}
	sort.Strings(out)
	return out, nil
}

// isValidSymbol checks if a symbol is a plausible ticker (BRK.B, BF-B allowed)
func isValidSymbol(symbol string) bool {
	if len(symbol) == 0 || len(symbol) > 10 {
		return false
	}
	for _, c := range symbol {
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '.' || c == '-') {
			return false
		}
	}
	return true
}

// PairCount is n choose 2
func PairCount(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}
