package panel

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/hybs/groupbypass/pkg/errors"
)

// OrderMode selects how the panel orders its entries.
type OrderMode string

const (
	// OrderAuto lists entries in discovery order.
	OrderAuto OrderMode = "auto"
	// OrderCustom applies the persisted order string.
	OrderCustom OrderMode = "custom"
)

// OrderModes lists the valid modes in display order.
var OrderModes = []OrderMode{OrderAuto, OrderCustom}

// ParseOrderMode validates s as an order mode.
func ParseOrderMode(s string) (OrderMode, error) {
	if err := errors.ValidateOrderMode(s); err != nil {
		return "", err
	}
	return OrderMode(s), nil
}

func (m OrderMode) String() string { return string(m) }

// ParseOrder splits an order string on commas, trims each token, drops
// empty tokens and removes repeats, keeping the first occurrence.
func ParseOrder(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// FormatOrder joins labels into a persisted order string.
func FormatOrder(labels []string) string {
	return strings.Join(labels, ", ")
}

// Labels returns the labels of entries in order.
func Labels(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Label
	}
	return out
}

// Reconcile orders entries for display. In custom mode entries are sorted
// by their label's position in the order string, unlisted entries last;
// ties keep auto order. Any other mode, or an order string with no labels,
// returns auto order. The result always has the same length as entries.
//
// Two entries sharing a label share a rank and keep their auto order.
func Reconcile(entries []Entry, mode OrderMode, pref string) []Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b Entry) int { return a.Index - b.Index })
	if mode != OrderCustom {
		return out
	}
	desired := ParseOrder(pref)
	if len(desired) == 0 {
		return out
	}

	rank := make(map[string]int, len(desired))
	for i, label := range desired {
		if _, ok := rank[label]; !ok {
			rank[label] = i
		}
	}
	rankOf := func(e Entry) int {
		if r, ok := rank[e.Label]; ok {
			return r
		}
		return math.MaxInt
	}

	slices.SortStableFunc(out, func(a, b Entry) int {
		ra, rb := rankOf(a), rankOf(b)
		switch {
		case ra < rb:
			return -1
		case ra > rb:
			return 1
		}
		return a.Index - b.Index
	})
	return out
}

// SeedOrder returns the initial item list of the reorder editor: entries
// whose label appears in the order string first, in listed order, followed
// by the remaining entries in auto order. Every entry appears exactly once,
// including entries that share a label.
func SeedOrder(entries []Entry, pref string) []Entry {
	auto := Reconcile(entries, OrderAuto, "")
	used := make([]bool, len(auto))
	out := make([]Entry, 0, len(auto))

	for _, label := range ParseOrder(pref) {
		for i, e := range auto {
			if !used[i] && e.Label == label {
				used[i] = true
				out = append(out, e)
			}
		}
	}
	for i, e := range auto {
		if !used[i] {
			out = append(out, e)
		}
	}
	return out
}

// Signature summarizes the listed labels as "count:label1|label2|...".
// The listing is rebuilt only when it changes.
func Signature(entries []Entry) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(entries)))
	b.WriteByte(':')
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(e.Label)
	}
	return b.String()
}

// errIndex reports an out-of-range position.
func errIndex(i, n int) error {
	return errors.New(errors.ErrCodeInvalidInput, "index %d out of range [0,%d)", i, n)
}
