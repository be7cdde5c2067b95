package analyzer

import (
	"fmt"
	"math"
)

// Feature names a reading of the FeatureVector.
type Feature string

const (
	Sharpness         Feature = "sharpness"
	Noise             Feature = "noise"
	Contrast          Feature = "contrast"
	Brightness        Feature = "brightness"
	EdgeDensity       Feature = "edge_density"
	ColorImbalance    Feature = "color_imbalance"
	ColorVariation    Feature = "color_variation"
	TextureUniformity Feature = "texture_uniformity"
)

// Features lists every feature in evaluation order.
var Features = []Feature{
	Sharpness, Noise, Contrast, Brightness,
	EdgeDensity, ColorImbalance, ColorVariation, TextureUniformity,
}

// Valid reports whether f is a known feature.
func (f Feature) Valid() bool {
	for _, known := range Features {
		if f == known {
			return true
		}
	}
	return false
}

// Condition matches a reading v when v < Below or v > Above. Use the
// constructors; an unused bound is ±Inf.
type Condition struct {
	Below float64
	Above float64
}

// LessThan matches readings strictly below x.
func LessThan(x float64) Condition {
	return Condition{Below: x, Above: math.Inf(1)}
}

// GreaterThan matches readings strictly above x.
func GreaterThan(x float64) Condition {
	return Condition{Below: math.Inf(-1), Above: x}
}

// Outside matches readings below lo or above hi.
func Outside(lo, hi float64) Condition {
	return Condition{Below: lo, Above: hi}
}

// Matches reports whether v satisfies the condition.
func (c Condition) Matches(v float64) bool {
	return v < c.Below || v > c.Above
}

func (c Condition) String() string {
	switch {
	case math.IsInf(c.Above, 1):
		return fmt.Sprintf("< %g", c.Below)
	case math.IsInf(c.Below, -1):
		return fmt.Sprintf("> %g", c.Above)
	}
	return fmt.Sprintf("< %g or > %g", c.Below, c.Above)
}

// Rule charges Penalty when its condition matches.
type Rule struct {
	When    Condition
	Penalty float64
}

// FeatureRules is the ordered rule list for one feature. The first matching
// rule wins; no match costs nothing.
type FeatureRules struct {
	Feature Feature
	Rules   []Rule
}

// RuleTable is evaluated feature by feature and the selected penalties are
// summed. The sum is not clamped.
type RuleTable []FeatureRules

// Match records the rule selected for one feature.
type Match struct {
	Feature Feature
	Value   float64
	Rule    int
	Penalty float64
}

// Validate rejects unknown or repeated features, inverted conditions,
// negative or non-finite penalties, and tables whose largest possible score
// reaches ErrorScore.
func (t RuleTable) Validate() error {
	seen := make(map[Feature]bool, len(t))
	for _, fr := range t {
		if !fr.Feature.Valid() {
			return fmt.Errorf("%w: unknown feature %q", ErrDegenerateInput, fr.Feature)
		}
		if seen[fr.Feature] {
			return fmt.Errorf("%w: feature %q listed twice", ErrDegenerateInput, fr.Feature)
		}
		seen[fr.Feature] = true
		for i, r := range fr.Rules {
			if math.IsNaN(r.When.Below) || math.IsNaN(r.When.Above) || r.When.Below > r.When.Above {
				return fmt.Errorf("%w: %s rule %d has an invalid condition", ErrDegenerateInput, fr.Feature, i)
			}
			if r.Penalty < 0 || math.IsNaN(r.Penalty) || math.IsInf(r.Penalty, 0) {
				return fmt.Errorf("%w: %s rule %d has penalty %v", ErrDegenerateInput, fr.Feature, i, r.Penalty)
			}
		}
	}
	if m := t.MaxScore(); m >= ErrorScore {
		return fmt.Errorf("%w: maximum score %g reaches the error score %g", ErrDegenerateInput, m, ErrorScore)
	}
	return nil
}

// MaxScore is the largest score the table can produce: the sum of each
// feature's largest penalty.
func (t RuleTable) MaxScore() float64 {
	var total float64
	for _, fr := range t {
		var largest float64
		for _, r := range fr.Rules {
			largest = math.Max(largest, r.Penalty)
		}
		total += largest
	}
	return total
}

// Evaluate returns the matching rule for every feature that has one.
func (t RuleTable) Evaluate(fv FeatureVector) []Match {
	var matches []Match
	for _, fr := range t {
		v := fv.Value(fr.Feature)
		for i, r := range fr.Rules {
			if r.When.Matches(v) {
				matches = append(matches, Match{Feature: fr.Feature, Value: v, Rule: i, Penalty: r.Penalty})
				break
			}
		}
	}
	return matches
}

// Score sums the penalties selected by Evaluate.
func (t RuleTable) Score(fv FeatureVector) float64 {
	var score float64
	for _, m := range t.Evaluate(fv) {
		score += m.Penalty
	}
	return score
}

// Clone returns a deep copy so presets can be modified independently.
func (t RuleTable) Clone() RuleTable {
	out := make(RuleTable, len(t))
	for i, fr := range t {
		out[i] = FeatureRules{Feature: fr.Feature, Rules: append([]Rule(nil), fr.Rules...)}
	}
	return out
}

// Lookup returns the rules for f.
func (t RuleTable) Lookup(f Feature) ([]Rule, bool) {
	for _, fr := range t {
		if fr.Feature == f {
			return fr.Rules, true
		}
	}
	return nil, false
}

// DefaultRuleTable is the canonical table.
func DefaultRuleTable() RuleTable {
	return RuleTable{
		{Sharpness, []Rule{{LessThan(50), 40}, {LessThan(150), 25}, {LessThan(300), 10}}},
		{Noise, []Rule{{GreaterThan(70), 30}, {GreaterThan(45), 15}, {LessThan(20), 8}}},
		{Contrast, []Rule{{LessThan(25), 25}, {LessThan(40), 12}}},
		{Brightness, []Rule{{Outside(30, 225), 20}, {Outside(50, 205), 8}}},
		{EdgeDensity, []Rule{{LessThan(0.01), 20}, {GreaterThan(0.2), 12}}},
		{ColorImbalance, []Rule{{GreaterThan(70), 15}, {GreaterThan(50), 8}}},
		{ColorVariation, []Rule{{LessThan(25), 12}, {LessThan(40), 6}}},
		{TextureUniformity, []Rule{{GreaterThan(0.02), 10}, {LessThan(0.005), 8}}},
	}
}

// Category is the verdict derived from a score.
type Category string

const (
	Good     Category = "Good"
	Moderate Category = "Moderate"
	Bad      Category = "Bad"
	Error    Category = "Error"
)

// Categories lists the categories a successful analysis can produce.
var Categories = []Category{Good, Moderate, Bad}

// ErrorScore is the score reported for failed items. RuleTable.Validate
// keeps every table's MaxScore below it, so no measurement can produce it.
const ErrorScore = 1000.0

// Categorize maps a score onto Good, Moderate or Bad given lowCut < highCut.
func Categorize(score, lowCut, highCut float64) Category {
	switch {
	case score < lowCut:
		return Good
	case score < highCut:
		return Moderate
	}
	return Bad
}
