package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds project-level settings loaded from codescope.yml.
type ProjectConfig struct {
	Language    string `yaml:"language,omitempty"`
	Format      string `yaml:"format,omitempty"`
	Verbose     bool   `yaml:"verbose,omitempty"`
	KuzuPath    string `yaml:"kuzuPath,omitempty"`
	ServeAddr   string `yaml:"serveAddr,omitempty"`
	OpenAIModel string `yaml:"openaiModel,omitempty"`
	OpenAIBase  string `yaml:"openaiBaseUrl,omitempty"`
	MaxCalls    int    `yaml:"maxCallsPerMinute,omitempty"`
}

// Load attempts to read codescope.yml or codescope.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"codescope.yml", "codescope.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}
