package query

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evosimgo/internal/layout"
	"github.com/vk/evosimgo/internal/organism"
)

// ModeKind enumerates the closed set of aggregation behaviors. A mode string
// is parsed exactly once per query build; the reducer dispatch below handles
// every kind, so no per-organism string comparison ever happens.
type ModeKind int

const (
	// ModeFirst returns the value for the first organism (empty mode string).
	ModeFirst ModeKind = iota
	// ModeIndex returns the value at a literal index, bounds-checked.
	ModeIndex
	// ModeCountValue counts organisms whose value satisfies Op against Value.
	ModeCountValue
	// ModeCountTrait counts organisms whose value satisfies Op against the
	// named trait's per-organism value.
	ModeCountTrait
	// ModeUnique counts distinct values (aliases: unique, richness).
	ModeUnique
	// ModeDominant returns the most frequent value; ties go to the first
	// value to reach the maximum count in iteration order.
	ModeDominant
	// ModeMin and ModeMax return the extremal value.
	ModeMin
	ModeMax
	// ModeMinID and ModeMaxID return the index of the extremal organism,
	// first occurrence on ties.
	ModeMinID
	ModeMaxID
	// ModeMean, ModeMedian, ModeVariance, ModeStdDev, ModeSum are the usual
	// statistics; variance and stddev use the population denominator.
	ModeMean
	ModeMedian
	ModeVariance
	ModeStdDev
	ModeSum
	// ModeEntropy is base-2 Shannon entropy over the value distribution.
	ModeEntropy
	// ModeMutualInfo is the mutual information with another trait (":trait").
	ModeMutualInfo
)

// CompareOp is one of the six relations a counting mode may use.
type CompareOp string

const (
	OpEq CompareOp = "=="
	OpNe CompareOp = "!="
	OpLt CompareOp = "<"
	OpGt CompareOp = ">"
	OpLe CompareOp = "<="
	OpGe CompareOp = ">="
)

// compareOps is ordered so two-character operators match before their
// one-character prefixes.
var compareOps = []CompareOp{OpEq, OpNe, OpLe, OpGe, OpLt, OpGt}

// Mode is the parsed form of an aggregation-mode string.
type Mode struct {
	Raw   string
	Kind  ModeKind
	Index int
	Op    CompareOp
	Value float64
	Trait string
}

// ParseMode resolves a mode string into its closed variant form, evaluating
// the grammar in priority order: empty, literal index, comparison, named
// reducer (case-insensitive), mutual-information partner.
func ParseMode(mode string) (Mode, error) {
	m := Mode{Raw: mode}
	s := strings.TrimSpace(mode)

	if s == "" {
		m.Kind = ModeFirst
		return m, nil
	}

	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		m.Kind = ModeIndex
		m.Index = n
		return m, nil
	}

	for _, op := range compareOps {
		if !strings.HasPrefix(s, string(op)) {
			continue
		}
		rest := strings.TrimSpace(s[len(op):])
		m.Op = op
		if v, err := strconv.ParseFloat(rest, 64); err == nil {
			m.Kind = ModeCountValue
			m.Value = v
			return m, nil
		}
		if hclsyntax.ValidIdentifier(rest) {
			m.Kind = ModeCountTrait
			m.Trait = rest
			return m, nil
		}
		return m, &UnknownAggregationModeError{Mode: mode, Reason: "comparison needs a numeric literal or a trait name"}
	}

	if rest, ok := strings.CutPrefix(s, ":"); ok {
		rest = strings.TrimSpace(rest)
		if !hclsyntax.ValidIdentifier(rest) {
			return m, &UnknownAggregationModeError{Mode: mode, Reason: "mutual information needs a trait name"}
		}
		m.Kind = ModeMutualInfo
		m.Trait = rest
		return m, nil
	}

	switch strings.ToLower(s) {
	case "unique", "richness":
		m.Kind = ModeUnique
	case "mode", "dom", "dominant":
		m.Kind = ModeDominant
	case "min":
		m.Kind = ModeMin
	case "max":
		m.Kind = ModeMax
	case "min_id":
		m.Kind = ModeMinID
	case "max_id":
		m.Kind = ModeMaxID
	case "ave", "mean":
		m.Kind = ModeMean
	case "median":
		m.Kind = ModeMedian
	case "variance":
		m.Kind = ModeVariance
	case "stddev":
		m.Kind = ModeStdDev
	case "sum", "total":
		m.Kind = ModeSum
	case "entropy":
		m.Kind = ModeEntropy
	default:
		return m, &UnknownAggregationModeError{Mode: mode}
	}
	return m, nil
}

// CollectFunc folds one value per organism into a single reported value over
// an ordered collection.
type CollectFunc func(organism.Collection) (cty.Value, error)

// BuildNumericCollect composes a per-organism numeric accessor with the
// reducer for a parsed mode. Comparison and mutual-information partners are
// resolved against the layout once, at build time.
func BuildNumericCollect(l *layout.Layout, m Mode, get NumFunc) (CollectFunc, error) {
	var partner *layout.Entry
	switch m.Kind {
	case ModeCountTrait, ModeMutualInfo:
		e, ok := l.Lookup(m.Trait)
		if !ok {
			return nil, &UnknownTraitReferenceError{Trait: m.Trait, Equation: m.Raw}
		}
		if m.Kind == ModeCountTrait && !e.IsNumeric() {
			return nil, &UnknownAggregationModeError{Mode: m.Raw, Reason: "comparison trait is not numeric"}
		}
		partner = e
	}

	return func(c organism.Collection) (cty.Value, error) {
		vals := make([]float64, c.Len())
		for i, o := range c.Orgs() {
			v, err := get(o)
			if err != nil {
				return cty.NilVal, err
			}
			vals[i] = v
		}

		switch m.Kind {
		case ModeFirst:
			if len(vals) == 0 {
				return cty.NilVal, &IndexOutOfRangeError{Index: 0, Size: 0}
			}
			return number(vals[0]), nil
		case ModeIndex:
			if m.Index >= len(vals) {
				return cty.NilVal, &IndexOutOfRangeError{Index: m.Index, Size: len(vals)}
			}
			return number(vals[m.Index]), nil
		case ModeCountValue:
			n := 0
			for _, v := range vals {
				if satisfies(m.Op, v, m.Value) {
					n++
				}
			}
			return number(float64(n)), nil
		case ModeCountTrait:
			n := 0
			for i, o := range c.Orgs() {
				other, err := o.Number(partner)
				if err != nil {
					return cty.NilVal, err
				}
				if satisfies(m.Op, vals[i], other) {
					n++
				}
			}
			return number(float64(n)), nil
		case ModeUnique:
			return number(float64(distinctCount(vals))), nil
		case ModeDominant:
			v, _ := dominant(vals)
			return number(v), nil
		case ModeMin:
			i, ok := extremeIndex(vals, func(a, b float64) bool { return a < b })
			if !ok {
				return cty.NilVal, &IndexOutOfRangeError{Index: 0, Size: 0}
			}
			return number(vals[i]), nil
		case ModeMax:
			i, ok := extremeIndex(vals, func(a, b float64) bool { return a > b })
			if !ok {
				return cty.NilVal, &IndexOutOfRangeError{Index: 0, Size: 0}
			}
			return number(vals[i]), nil
		case ModeMinID:
			i, ok := extremeIndex(vals, func(a, b float64) bool { return a < b })
			if !ok {
				return cty.NilVal, &IndexOutOfRangeError{Index: 0, Size: 0}
			}
			return number(float64(i)), nil
		case ModeMaxID:
			i, ok := extremeIndex(vals, func(a, b float64) bool { return a > b })
			if !ok {
				return cty.NilVal, &IndexOutOfRangeError{Index: 0, Size: 0}
			}
			return number(float64(i)), nil
		case ModeMean:
			return number(mean(vals)), nil
		case ModeMedian:
			return number(median(vals)), nil
		case ModeVariance:
			return number(variance(vals)), nil
		case ModeStdDev:
			return number(math.Sqrt(variance(vals))), nil
		case ModeSum:
			sum := 0.0
			for _, v := range vals {
				sum += v
			}
			return number(sum), nil
		case ModeEntropy:
			return number(entropyOf(vals)), nil
		case ModeMutualInfo:
			other := make([]string, c.Len())
			for i, o := range c.Orgs() {
				other[i] = o.Render(partner)
			}
			return number(mutualInfo(vals, other)), nil
		default:
			return cty.NilVal, &UnknownAggregationModeError{Mode: m.Raw}
		}
	}, nil
}

// BuildStringCollect is the string-trait counterpart. Only order, frequency,
// and information modes apply; arithmetic statistics report an unknown-mode
// error for string traits.
func BuildStringCollect(l *layout.Layout, m Mode, get StrFunc) (CollectFunc, error) {
	var partner *layout.Entry
	switch m.Kind {
	case ModeFirst, ModeIndex, ModeUnique, ModeDominant,
		ModeMin, ModeMax, ModeMinID, ModeMaxID, ModeEntropy:
	case ModeCountTrait, ModeMutualInfo:
		e, ok := l.Lookup(m.Trait)
		if !ok {
			return nil, &UnknownTraitReferenceError{Trait: m.Trait, Equation: m.Raw}
		}
		partner = e
	default:
		return nil, &UnknownAggregationModeError{Mode: m.Raw, Reason: "not supported for string traits"}
	}

	return func(c organism.Collection) (cty.Value, error) {
		vals := make([]string, c.Len())
		for i, o := range c.Orgs() {
			vals[i] = get(o)
		}

		switch m.Kind {
		case ModeFirst:
			if len(vals) == 0 {
				return cty.NilVal, &IndexOutOfRangeError{Index: 0, Size: 0}
			}
			return cty.StringVal(vals[0]), nil
		case ModeIndex:
			if m.Index >= len(vals) {
				return cty.NilVal, &IndexOutOfRangeError{Index: m.Index, Size: len(vals)}
			}
			return cty.StringVal(vals[m.Index]), nil
		case ModeCountTrait:
			n := 0
			for i, o := range c.Orgs() {
				if satisfies(m.Op, float64(strings.Compare(vals[i], o.Render(partner))), 0) {
					n++
				}
			}
			return number(float64(n)), nil
		case ModeUnique:
			return number(float64(distinctCount(vals))), nil
		case ModeDominant:
			v, _ := dominant(vals)
			return cty.StringVal(v), nil
		case ModeMin:
			i, ok := extremeIndex(vals, func(a, b string) bool { return a < b })
			if !ok {
				return cty.NilVal, &IndexOutOfRangeError{Index: 0, Size: 0}
			}
			return cty.StringVal(vals[i]), nil
		case ModeMax:
			i, ok := extremeIndex(vals, func(a, b string) bool { return a > b })
			if !ok {
				return cty.NilVal, &IndexOutOfRangeError{Index: 0, Size: 0}
			}
			return cty.StringVal(vals[i]), nil
		case ModeMinID:
			i, ok := extremeIndex(vals, func(a, b string) bool { return a < b })
			if !ok {
				return cty.NilVal, &IndexOutOfRangeError{Index: 0, Size: 0}
			}
			return number(float64(i)), nil
		case ModeMaxID:
			i, ok := extremeIndex(vals, func(a, b string) bool { return a > b })
			if !ok {
				return cty.NilVal, &IndexOutOfRangeError{Index: 0, Size: 0}
			}
			return number(float64(i)), nil
		case ModeEntropy:
			return number(entropyOf(vals)), nil
		case ModeMutualInfo:
			other := make([]string, c.Len())
			for i, o := range c.Orgs() {
				other[i] = o.Render(partner)
			}
			return number(mutualInfo(vals, other)), nil
		default:
			return cty.NilVal, &UnknownAggregationModeError{Mode: m.Raw}
		}
	}, nil
}

func number(f float64) cty.Value { return cty.NumberFloatVal(f) }

func satisfies(op CompareOp, a, b float64) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpLt:
		return a < b
	case OpGt:
		return a > b
	case OpLe:
		return a <= b
	case OpGe:
		return a >= b
	default:
		return false
	}
}

func distinctCount[T comparable](vals []T) int {
	seen := make(map[T]struct{}, len(vals))
	for _, v := range vals {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// dominant returns the most frequent value; on a tie the first value to
// reach the maximum count in iteration order wins.
func dominant[T comparable](vals []T) (T, bool) {
	var best T
	if len(vals) == 0 {
		return best, false
	}
	counts := make(map[T]int, len(vals))
	bestCount := 0
	for _, v := range vals {
		counts[v]++
		if counts[v] > bestCount {
			bestCount = counts[v]
			best = v
		}
	}
	return best, true
}

// extremeIndex returns the index of the first organism holding the extremal
// value under the given ordering.
func extremeIndex[T any](vals []T, better func(a, b T) bool) (int, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	idx := 0
	for i, v := range vals[1:] {
		if better(v, vals[idx]) {
			idx = i + 1
		}
	}
	return idx, true
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// variance uses the population denominator (divide by N).
func variance(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m := mean(vals)
	sum := 0.0
	for _, v := range vals {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(vals))
}

// median of sorted values; even-length collections average the central pair.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// entropyOf is base-2 Shannon entropy over the empirical value distribution.
func entropyOf[T comparable](vals []T) float64 {
	if len(vals) == 0 {
		return 0
	}
	counts := make(map[T]int, len(vals))
	for _, v := range vals {
		counts[v]++
	}
	n := float64(len(vals))
	h := 0.0
	for _, count := range counts {
		p := float64(count) / n
		h -= p * math.Log2(p)
	}
	return h
}

// mutualInfo computes I(X;Y) in bits from the joint frequency table of the
// paired per-organism values.
func mutualInfo[A, B comparable](xs []A, ys []B) float64 {
	if len(xs) == 0 || len(xs) != len(ys) {
		return 0
	}
	type pair struct {
		a A
		b B
	}
	joint := make(map[pair]int, len(xs))
	left := make(map[A]int, len(xs))
	right := make(map[B]int, len(ys))
	for i := range xs {
		joint[pair{xs[i], ys[i]}]++
		left[xs[i]]++
		right[ys[i]]++
	}
	n := float64(len(xs))
	info := 0.0
	for p, count := range joint {
		pxy := float64(count) / n
		px := float64(left[p.a]) / n
		py := float64(right[p.b]) / n
		info += pxy * math.Log2(pxy/(px*py))
	}
	return info
}
