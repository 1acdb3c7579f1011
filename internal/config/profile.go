package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// RealismProfile overrides the hand-tuned data used by the synthetic data
// generator and the rule-based sentiment lexicon. Empty fields keep the
// built-in defaults.
type RealismProfile struct {
	FirstNames    []string         `mapstructure:"first_names"`
	LastNames     []string         `mapstructure:"last_names"`
	Departments   []string         `mapstructure:"departments"`
	EmailDomain   string           `mapstructure:"email_domain"`
	ScaleWeights  map[string][]int `mapstructure:"scale_weights"` // keys are lowercased by viper
	PositiveWords []string         `mapstructure:"positive_words"`
	NegativeWords []string         `mapstructure:"negative_words"`
}

// LoadRealismProfile reads a YAML/JSON/TOML profile file. An empty path yields nil.
func LoadRealismProfile(path string) (*RealismProfile, error) {
	if path == "" {
		return nil, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read realism profile %s: %w", path, err)
	}
	var p RealismProfile
	if err := v.Unmarshal(&p); err != nil {
		return nil, fmt.Errorf("decode realism profile: %w", err)
	}
	return &p, nil
}
