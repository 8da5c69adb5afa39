package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Directory holding the five source CSV files.
	SourcesDir string `mapstructure:"sources_dir" yaml:"sources_dir"`
	// Merged table written by merge and read by every analysis command.
	DataPath     string `mapstructure:"data_path" yaml:"data_path"`
	ReviewPolicy string `mapstructure:"review_policy" yaml:"review_policy"`
	// Single character; empty means infer from the file extension.
	Delimiter   string   `mapstructure:"delimiter" yaml:"delimiter"`
	TopN        int      `mapstructure:"top_n" yaml:"top_n"`
	DefaultVars []string `mapstructure:"default_vars" yaml:"default_vars"`

	// Dashboard
	ServerAddr string `mapstructure:"server_addr" yaml:"server_addr"`
	GinMode    string `mapstructure:"gin_mode" yaml:"gin_mode"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{"sources_dir", "data_path", "review_policy", "delimiter", "top_n", "default_vars", "server_addr", "gin_mode"}

// Dir returns ~/.orderlens.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".orderlens"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.orderlens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("ORDERLENS")
	v.AutomaticEnv()

	v.SetDefault("sources_dir", "data")
	v.SetDefault("data_path", "ecommerce_dataset.csv")
	v.SetDefault("review_policy", "all")
	v.SetDefault("delimiter", "")
	v.SetDefault("top_n", 10)
	v.SetDefault("default_vars", []string{"product_weight_g", "freight_value", "review_score"})
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("gin_mode", "release")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Set assigns key from its string form, validating the value.
func (c *Global) Set(key, val string) error {
	switch key {
	case "sources_dir":
		c.SourcesDir = val
	case "data_path":
		c.DataPath = val
	case "review_policy":
		switch strings.ToLower(val) {
		case "all", "first", "mean":
			c.ReviewPolicy = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid review_policy: %s (use all, first or mean)", val)
		}
	case "delimiter":
		if _, err := ParseDelimiter(val); err != nil {
			return err
		}
		c.Delimiter = val
	case "top_n":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for top_n: %v", val)
		}
		c.TopN = i
	case "default_vars":
		var vars []string
		for _, s := range strings.Split(val, ",") {
			if s = strings.TrimSpace(s); s != "" {
				vars = append(vars, s)
			}
		}
		c.DefaultVars = vars
	case "server_addr":
		c.ServerAddr = val
	case "gin_mode":
		switch val {
		case "debug", "release", "test":
			c.GinMode = val
		default:
			return fmt.Errorf("invalid gin_mode: %s (use debug, release or test)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// Get renders key for display.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "sources_dir":
		return c.SourcesDir, nil
	case "data_path":
		return c.DataPath, nil
	case "review_policy":
		return c.ReviewPolicy, nil
	case "delimiter":
		return c.Delimiter, nil
	case "top_n":
		return strconv.Itoa(c.TopN), nil
	case "default_vars":
		return strings.Join(c.DefaultVars, ","), nil
	case "server_addr":
		return c.ServerAddr, nil
	case "gin_mode":
		return c.GinMode, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// ParseDelimiter accepts a single character, "tab" or "\t". Empty yields 0,
// meaning the delimiter is inferred from the file extension.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 || r[0] == '"' || r[0] == '\n' || r[0] == '\r' {
		return 0, fmt.Errorf("invalid delimiter: %q", s)
	}
	return r[0], nil
}
