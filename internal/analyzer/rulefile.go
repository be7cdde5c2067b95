package analyzer

import (
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// profileDoc is the YAML shape of a rule file. Unset scalars keep the value
// of the config the file is applied to.
type profileDoc struct {
	Name         string       `yaml:"name,omitempty"`
	AnalysisSize int          `yaml:"analysis_size,omitempty"`
	LowCut       *float64     `yaml:"low_cut,omitempty"`
	HighCut      *float64     `yaml:"high_cut,omitempty"`
	EdgeLow      *float64     `yaml:"edge_low,omitempty"`
	EdgeHigh     *float64     `yaml:"edge_high,omitempty"`
	Features     []featureDoc `yaml:"features"`
}

type featureDoc struct {
	Feature Feature   `yaml:"feature"`
	Rules   []ruleDoc `yaml:"rules"`
}

type ruleDoc struct {
	Below   *float64 `yaml:"below,omitempty"`
	Above   *float64 `yaml:"above,omitempty"`
	Penalty float64  `yaml:"penalty"`
}

// LoadProfile reads a YAML rule file and applies it on top of base. The
// file's feature list replaces the base rule table when present.
func LoadProfile(r io.Reader, base Config) (Config, error) {
	var doc profileDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Config{}, fmt.Errorf("%w: parse rule file: %v", ErrDegenerateInput, err)
	}

	cfg := base
	if doc.Name != "" {
		cfg.Name = doc.Name
	}
	if doc.AnalysisSize != 0 {
		cfg.AnalysisSize = doc.AnalysisSize
	}
	if doc.LowCut != nil {
		cfg.LowCut = *doc.LowCut
	}
	if doc.HighCut != nil {
		cfg.HighCut = *doc.HighCut
	}
	if doc.EdgeLow != nil {
		cfg.EdgeLow = *doc.EdgeLow
	}
	if doc.EdgeHigh != nil {
		cfg.EdgeHigh = *doc.EdgeHigh
	}
	if len(doc.Features) > 0 {
		table := make(RuleTable, 0, len(doc.Features))
		for _, fd := range doc.Features {
			fr := FeatureRules{Feature: fd.Feature}
			for i, rd := range fd.Rules {
				if rd.Below == nil && rd.Above == nil {
					return Config{}, fmt.Errorf("%w: %s rule %d needs below or above", ErrDegenerateInput, fd.Feature, i)
				}
				cond := Condition{Below: math.Inf(-1), Above: math.Inf(1)}
				if rd.Below != nil {
					cond.Below = *rd.Below
				}
				if rd.Above != nil {
					cond.Above = *rd.Above
				}
				fr.Rules = append(fr.Rules, Rule{When: cond, Penalty: rd.Penalty})
			}
			table = append(table, fr)
		}
		cfg.Rules = table
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadProfileFile is LoadProfile for a file on disk.
func LoadProfileFile(path string, base Config) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open rule file: %w", err)
	}
	defer f.Close()
	return LoadProfile(f, base)
}

// WriteProfile encodes cfg in the format LoadProfile reads.
func WriteProfile(w io.Writer, cfg Config) error {
	low, high := cfg.LowCut, cfg.HighCut
	edgeLow, edgeHigh := cfg.EdgeLow, cfg.EdgeHigh
	doc := profileDoc{
		Name:         cfg.Name,
		AnalysisSize: cfg.AnalysisSize,
		LowCut:       &low,
		HighCut:      &high,
		EdgeLow:      &edgeLow,
		EdgeHigh:     &edgeHigh,
	}
	for _, fr := range cfg.Rules {
		fd := featureDoc{Feature: fr.Feature}
		for _, r := range fr.Rules {
			rd := ruleDoc{Penalty: r.Penalty}
			if !math.IsInf(r.When.Below, -1) {
				below := r.When.Below
				rd.Below = &below
			}
			if !math.IsInf(r.When.Above, 1) {
				above := r.When.Above
				rd.Above = &above
			}
			fd.Rules = append(fd.Rules, rd)
		}
		doc.Features = append(doc.Features, fd)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode rule file: %w", err)
	}
	return enc.Close()
}
