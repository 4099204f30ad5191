package simal

import (
	"fmt"
	"os"
	"regexp"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config represents the simal project configuration
type Config struct {
	InputDir   string           `yaml:"input_dir"`
	Parser     ParserConfig     `yaml:"parser"`
	Generation GenerationConfig `yaml:"generation"`
}

// ParserConfig represents structural parser settings
type ParserConfig struct {
	// Pointer to distinguish between unset and false. If nil, merging is enabled.
	MergeDuplicateAttrs *bool `yaml:"merge_duplicate_attrs"`
}

// ShouldMergeDuplicateAttrs returns true unless merge_duplicate_attrs: false is set
func (p ParserConfig) ShouldMergeDuplicateAttrs() bool {
	return p.MergeDuplicateAttrs == nil || *p.MergeDuplicateAttrs
}

// GenerationConfig represents JSON output settings
type GenerationConfig struct {
	Output    string `yaml:"output"`
	Pretty    *bool  `yaml:"pretty"`
	JSON      *bool  `yaml:"json"`
	Simple    *bool  `yaml:"simple"`
	MaxSimple bool   `yaml:"max_simple"`
}

// IsPretty returns true unless pretty: false is set
func (g GenerationConfig) IsPretty() bool {
	return g.Pretty == nil || *g.Pretty
}

// EmitJSON returns true unless json: false is set
func (g GenerationConfig) EmitJSON() bool {
	return g.JSON == nil || *g.JSON
}

// EmitSimple returns true unless simple: false is set
func (g GenerationConfig) EmitSimple() bool {
	return g.Simple == nil || *g.Simple
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	// Check if config file exists
	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		// Return default configuration if file doesn't exist
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML with strict mode to detect unknown fields
	var config Config

	err = yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}

	applyDefaults(&config)
	expandConfigEnvVars(&config)

	return &config, nil
}

func getDefaultConfig() *Config {
	return &Config{
		InputDir: ".",
		Generation: GenerationConfig{
			Output: ".",
		},
	}
}

func validateConfig(config *Config) error {
	if config.InputDir != "" {
		if _, err := os.Stat(config.InputDir); err != nil && os.IsNotExist(err) {
			return fmt.Errorf("input_dir %q does not exist", config.InputDir)
		}
	}
	return nil
}

func applyDefaults(config *Config) {
	if config.InputDir == "" {
		config.InputDir = "."
	}
	if config.Generation.Output == "" {
		config.Generation.Output = "."
	}
}

func loadEnvFiles() error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandConfigEnvVars expands ${VAR} references in path-valued fields
func expandConfigEnvVars(config *Config) {
	config.InputDir = expandEnvVars(config.InputDir)
	config.Generation.Output = expandEnvVars(config.Generation.Output)
}

func expandEnvVars(value string) string {
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		name := match[2 : len(match)-1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return match
	})
}
