package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the generator configuration, loaded from codewalk.yaml with
// CODEWALK_* environment overrides.
type Config struct {
	Project struct {
		Root     string `yaml:"root"`     // project root, used for test-report path matching
		Examples string `yaml:"examples"` // directory holding annotated example sources
	} `yaml:"project"`
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
	Tests struct {
		Report   string `yaml:"report"`   // path to the jest/vitest JSON report
		Sentinel string `yaml:"sentinel"` // in-source test harness guard expression
	} `yaml:"tests"`
	Render struct {
		Language string `yaml:"language"` // fence language hint for example code
		Workers  int    `yaml:"workers"`  // parallel renders in a batch
	} `yaml:"render"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.Project.Root = "."
	cfg.Project.Examples = "examples"
	cfg.Output.Dir = "docs"
	cfg.Tests.Report = "test-report.json"
	cfg.Tests.Sentinel = "import.meta.vitest"
	cfg.Render.Language = "ts"
	cfg.Render.Workers = 4
	return cfg
}

// LoadConfig reads the YAML config at path, falling back to defaults when the
// file does not exist. Environment variables override file values.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	applyDefaults(cfg)

	// 3. Override with environment variables if present
	if v := os.Getenv("CODEWALK_ROOT"); v != "" {
		cfg.Project.Root = v
	}
	if v := os.Getenv("CODEWALK_EXAMPLES"); v != "" {
		cfg.Project.Examples = v
	}
	if v := os.Getenv("CODEWALK_OUTPUT"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("CODEWALK_TEST_REPORT"); v != "" {
		cfg.Tests.Report = v
	}
	if v := os.Getenv("CODEWALK_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Render.Workers = n
		}
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Project.Root == "" {
		cfg.Project.Root = def.Project.Root
	}
	if cfg.Project.Examples == "" {
		cfg.Project.Examples = def.Project.Examples
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = def.Output.Dir
	}
	if cfg.Tests.Report == "" {
		cfg.Tests.Report = def.Tests.Report
	}
	if cfg.Tests.Sentinel == "" {
		cfg.Tests.Sentinel = def.Tests.Sentinel
	}
	if cfg.Render.Language == "" {
		cfg.Render.Language = def.Render.Language
	}
	if cfg.Render.Workers <= 0 {
		cfg.Render.Workers = def.Render.Workers
	}
}
