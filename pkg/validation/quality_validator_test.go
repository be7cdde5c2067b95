package validation

import (
	"testing"

	"github.com/anime-shed/image-quality-go/internal/analyzer"
)

func issuesOfType(issues []QualityIssue, typ string) []QualityIssue {
	var out []QualityIssue
	for _, issue := range issues {
		if issue.Type == typ {
			out = append(out, issue)
		}
	}
	return out
}

func TestValidateProfile_Presets(t *testing.T) {
	validator := NewProfileValidator()

	for _, name := range analyzer.PresetNames() {
		t.Run(name, func(t *testing.T) {
			cfg, err := analyzer.Preset(name)
			if err != nil {
				t.Fatalf("Expected preset %s, got %v", name, err)
			}
			issues := validator.ValidateProfile(cfg)
			for _, issue := range issues {
				if issue.Severity != SeverityInfo {
					t.Errorf("Expected only info issues for preset %s, got %+v", name, issue)
				}
			}
		})
	}
}

func TestValidateProfile_UncoveredFeatures(t *testing.T) {
	cfg := analyzer.UltraFastConfig()

	issues := issuesOfType(NewProfileValidator().ValidateProfile(cfg), IssueUncoveredFeature)
	if len(issues) != len(analyzer.Features)-3 {
		t.Errorf("Expected %d uncovered features, got %d", len(analyzer.Features)-3, len(issues))
	}

	strict := &ProfileValidator{RequireAllFeatures: true}
	for _, issue := range issuesOfType(strict.ValidateProfile(cfg), IssueUncoveredFeature) {
		if issue.Severity != SeverityWarning {
			t.Errorf("Expected warning severity, got %s", issue.Severity)
		}
	}
}

func TestValidateProfile_ShadowedRules(t *testing.T) {
	tests := []struct {
		name     string
		rules    []analyzer.Rule
		shadowed []int
	}{
		{
			name:     "wider threshold first",
			rules:    []analyzer.Rule{{When: analyzer.LessThan(150), Penalty: 25}, {When: analyzer.LessThan(50), Penalty: 40}},
			shadowed: []int{1},
		},
		{
			name:  "narrower threshold first",
			rules: []analyzer.Rule{{When: analyzer.LessThan(50), Penalty: 40}, {When: analyzer.LessThan(150), Penalty: 25}},
		},
		{
			name: "covered by two earlier rules together",
			rules: []analyzer.Rule{
				{When: analyzer.LessThan(30), Penalty: 10},
				{When: analyzer.GreaterThan(200), Penalty: 10},
				{When: analyzer.Outside(20, 220), Penalty: 5},
			},
			shadowed: []int{2},
		},
		{
			name: "outside band wider than earlier",
			rules: []analyzer.Rule{
				{When: analyzer.Outside(30, 225), Penalty: 20},
				{When: analyzer.Outside(50, 205), Penalty: 8},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := analyzer.DefaultConfig().WithRules(analyzer.RuleTable{
				{Feature: analyzer.Brightness, Rules: tt.rules},
			}).WithCutoffs(5, 10)

			issues := issuesOfType(NewProfileValidator().ValidateProfile(cfg), IssueShadowedRule)
			if len(issues) != len(tt.shadowed) {
				t.Fatalf("Expected %d shadowed rules, got %+v", len(tt.shadowed), issues)
			}
			for i, idx := range tt.shadowed {
				if issues[i].Rule != idx {
					t.Errorf("Expected rule %d shadowed, got %d", idx, issues[i].Rule)
				}
			}
		})
	}
}

func TestValidateProfile_Findings(t *testing.T) {
	cfg := analyzer.DefaultConfig().WithRules(analyzer.RuleTable{
		{Feature: analyzer.Sharpness, Rules: []analyzer.Rule{{When: analyzer.LessThan(50), Penalty: 0}}},
		{Feature: analyzer.Noise},
	})

	issues := NewProfileValidator().ValidateProfile(cfg)

	if n := len(issuesOfType(issues, IssueZeroPenalty)); n != 1 {
		t.Errorf("Expected 1 zero penalty issue, got %d", n)
	}
	if n := len(issuesOfType(issues, IssueEmptyFeature)); n != 1 {
		t.Errorf("Expected 1 empty feature issue, got %d", n)
	}
	if n := len(issuesOfType(issues, IssueUnreachableBad)); n != 1 {
		t.Errorf("Expected unreachable Bad, got %d", n)
	}
	if HasCriticalIssues(issues) {
		t.Error("Expected no critical issues")
	}
}

func TestValidateProfile_Invalid(t *testing.T) {
	cfg := analyzer.DefaultConfig().WithCutoffs(50, 20)

	issues := NewProfileValidator().ValidateProfile(cfg)
	if len(issues) != 1 || issues[0].Type != IssueInvalidProfile {
		t.Fatalf("Expected a single invalid profile issue, got %+v", issues)
	}
	if !HasCriticalIssues(issues) {
		t.Error("Expected critical issue")
	}
	if msgs := ConvertIssuesToMessages(issues); len(msgs) != 1 || msgs[0] == "" {
		t.Errorf("Expected one message, got %v", msgs)
	}
}

func TestMaxScore(t *testing.T) {
	if got := MaxScore(analyzer.DefaultRuleTable()); got != 172 {
		t.Errorf("Expected 172, got %v", got)
	}
	if got := MaxScore(nil); got != 0 {
		t.Errorf("Expected 0, got %v", got)
	}
}
