package workflow

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Accessors for the generic JSON tree. Numbers are decoded as json.Number.

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func asInt(v any) (int64, bool) {
	f, ok := asFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

// pair reads a two-element vector stored as [a, b] or {"0": a, "1": b}.
func pair(v any) (a, b float64, ok bool) {
	switch p := v.(type) {
	case []any:
		if len(p) < 2 {
			return 0, 0, false
		}
		a, okA := asFloat(p[0])
		b, okB := asFloat(p[1])
		return a, b, okA && okB
	case map[string]any:
		a, okA := asFloat(p["0"])
		b, okB := asFloat(p["1"])
		return a, b, okA && okB
	}
	return 0, 0, false
}

// rect reads a four-element [x, y, w, h] array.
func rect(v any) (r [4]float64, err error) {
	a, ok := asArray(v)
	if !ok || len(a) < 4 {
		return r, fmt.Errorf("bounding %v: want [x, y, w, h]", v)
	}
	for i := range 4 {
		f, ok := asFloat(a[i])
		if !ok {
			return r, fmt.Errorf("bounding[%d] %v: not a number", i, a[i])
		}
		r[i] = f
	}
	return r, nil
}
