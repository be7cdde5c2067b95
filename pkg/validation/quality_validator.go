package validation

import (
	"fmt"
	"math"

	"github.com/anime-shed/image-quality-go/internal/analyzer"
)

// Issue types reported by ProfileValidator.
const (
	IssueInvalidProfile   = "invalid_profile"
	IssueShadowedRule     = "shadowed_rule"
	IssueEmptyFeature     = "empty_feature"
	IssueUncoveredFeature = "uncovered_feature"
	IssueZeroPenalty      = "zero_penalty"
	IssueUnreachableBad   = "unreachable_bad"
)

// Severities
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// QualityIssue describes one finding about a quality profile.
type QualityIssue struct {
	Type     string           `json:"type" yaml:"type"`
	Message  string           `json:"message" yaml:"message"`
	Severity string           `json:"severity" yaml:"severity"`
	Feature  analyzer.Feature `json:"feature,omitempty" yaml:"feature,omitempty"`
	Rule     int              `json:"rule,omitempty" yaml:"rule,omitempty"`
}

// ProfileValidator lints a scoring profile: its rule table and cutoffs.
// Config.Validate only rejects tables the engine cannot run; the linter
// also reports tables that run but cannot behave as intended.
type ProfileValidator struct {
	// RequireAllFeatures turns uncovered features into warnings.
	RequireAllFeatures bool
}

// NewProfileValidator creates a validator with default settings
func NewProfileValidator() *ProfileValidator {
	return &ProfileValidator{}
}

// ValidateProfile returns every issue found in cfg, errors first.
func (v *ProfileValidator) ValidateProfile(cfg analyzer.Config) []QualityIssue {
	if err := cfg.Validate(); err != nil {
		return []QualityIssue{{
			Type:     IssueInvalidProfile,
			Message:  err.Error(),
			Severity: SeverityError,
		}}
	}

	var issues []QualityIssue
	covered := make(map[analyzer.Feature]bool, len(cfg.Rules))

	for _, fr := range cfg.Rules {
		covered[fr.Feature] = true
		if len(fr.Rules) == 0 {
			issues = append(issues, QualityIssue{
				Type:     IssueEmptyFeature,
				Message:  fmt.Sprintf("%s is listed without rules", fr.Feature),
				Severity: SeverityWarning,
				Feature:  fr.Feature,
			})
			continue
		}
		issues = append(issues, shadowedRules(fr)...)
		for i, r := range fr.Rules {
			if r.Penalty == 0 {
				issues = append(issues, QualityIssue{
					Type:     IssueZeroPenalty,
					Message:  fmt.Sprintf("%s rule %d (%s) charges nothing", fr.Feature, i, r.When),
					Severity: SeverityInfo,
					Feature:  fr.Feature,
					Rule:     i,
				})
			}
		}
	}

	for _, f := range analyzer.Features {
		if covered[f] {
			continue
		}
		severity := SeverityInfo
		if v.RequireAllFeatures {
			severity = SeverityWarning
		}
		issues = append(issues, QualityIssue{
			Type:     IssueUncoveredFeature,
			Message:  fmt.Sprintf("%s has no rules and never affects the score", f),
			Severity: severity,
			Feature:  f,
		})
	}

	if max := MaxScore(cfg.Rules); max < cfg.HighCut {
		issues = append(issues, QualityIssue{
			Type:     IssueUnreachableBad,
			Message:  fmt.Sprintf("maximum score %g is below high cut %g; Bad is unreachable", max, cfg.HighCut),
			Severity: SeverityWarning,
		})
	}

	return issues
}

// shadowedRules reports rules that can never be selected because earlier
// rules of the same feature already match every value they match. The
// earlier rules together match (-inf, maxBelow) and (minAbove, +inf).
func shadowedRules(fr analyzer.FeatureRules) []QualityIssue {
	var issues []QualityIssue
	maxBelow, minAbove := math.Inf(-1), math.Inf(1)

	for i, r := range fr.Rules {
		if i > 0 && r.When.Below <= maxBelow && r.When.Above >= minAbove {
			issues = append(issues, QualityIssue{
				Type:     IssueShadowedRule,
				Message:  fmt.Sprintf("%s rule %d (%s) is shadowed by earlier rules", fr.Feature, i, r.When),
				Severity: SeverityWarning,
				Feature:  fr.Feature,
				Rule:     i,
			})
		}
		maxBelow = math.Max(maxBelow, r.When.Below)
		minAbove = math.Min(minAbove, r.When.Above)
	}
	return issues
}

// MaxScore is an upper bound on the score a table can produce: the largest
// penalty of every feature, summed.
func MaxScore(t analyzer.RuleTable) float64 {
	return t.MaxScore()
}

// ConvertIssuesToMessages flattens issues to their messages
func ConvertIssuesToMessages(issues []QualityIssue) []string {
	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}

// HasCriticalIssues checks if there are any critical (error severity) issues
func HasCriticalIssues(issues []QualityIssue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
