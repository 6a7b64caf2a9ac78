// Package config resolves folio settings from defaults, a config file, a .env file and
// the environment, in that order of increasing precedence. Command-line flags are
// applied on top by the cli package.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigDir = "FOLIO_CONFIG_DIR"
	envPrefix    = "FOLIO_"
)

type Config struct {
	// Dir is the store directory; empty means discover .folio from the working directory.
	Dir string `yaml:"dir,omitempty" toml:"dir,omitempty"`

	GitHubToken  string `yaml:"github_token,omitempty" toml:"github_token,omitempty"`
	GitHubAPIURL string `yaml:"github_api_url" toml:"github_api_url"`

	Addr        string   `yaml:"addr" toml:"addr"`
	CORSOrigins []string `yaml:"cors_origins,omitempty" toml:"cors_origins,omitempty"`
	ExportDir   string   `yaml:"export_dir" toml:"export_dir"`

	Log    LogConfig    `yaml:"log" toml:"log"`
	Ranker RankerConfig `yaml:"ranker" toml:"ranker"`
	PDF    PDFConfig    `yaml:"pdf" toml:"pdf"`

	// Source is the config file that was read, if any.
	Source string `yaml:"-" toml:"-"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file,omitempty" toml:"file,omitempty"`
}

type RankerConfig struct {
	TopN         int  `yaml:"top_n" toml:"top_n"`
	MinStars     int  `yaml:"min_stars" toml:"min_stars"`
	IncludeForks bool `yaml:"include_forks" toml:"include_forks"`
}

type PDFConfig struct {
	// Browser is a Chromium binary; empty lets rod download or find one.
	Browser  string `yaml:"browser,omitempty" toml:"browser,omitempty"`
	Headless bool   `yaml:"headless" toml:"headless"`
	Timeout  string `yaml:"timeout" toml:"timeout"`
}

func Default() Config {
	return Config{
		GitHubAPIURL: "https://api.github.com/graphql",
		Addr:         "127.0.0.1:5173",
		ExportDir:    "exports",
		Log:          LogConfig{Level: "info", Format: "console"},
		Ranker:       RankerConfig{TopN: 6},
		PDF:          PDFConfig{Headless: true, Timeout: "60s"},
	}
}

// Dir returns the config directory: $FOLIO_CONFIG_DIR, else ~/.folio.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".folio"), nil
}

type LoadOptions struct {
	// ConfigDir overrides Dir().
	ConfigDir string
	// EnvFile is a dotenv file; empty means ".env" in the working directory. A missing
	// file is not an error.
	EnvFile string
}

// Load builds the effective configuration.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	dir := strings.TrimSpace(opts.ConfigDir)
	if dir == "" {
		d, err := Dir()
		if err != nil {
			return cfg, err
		}
		dir = d
	}
	if err := cfg.readFile(dir); err != nil {
		return cfg, err
	}

	envFile := strings.TrimSpace(opts.EnvFile)
	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("read %s: %w", envFile, err)
	}
	// Real environment wins over the dotenv file.
	lookup := func(k string) (string, bool) {
		if v, ok := os.LookupEnv(k); ok {
			return v, true
		}
		v, ok := dotenv[k]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) readFile(dir string) error {
	for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("config load failed (%s): %w", path, err)
		}
		if strings.HasSuffix(name, ".toml") {
			err = toml.Unmarshal(data, c)
		} else {
			err = yaml.Unmarshal(data, c)
		}
		if err != nil {
			return fmt.Errorf("config parse failed (%s): %w", path, err)
		}
		c.Source = path
		return nil
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str(envPrefix+"DIR", &c.Dir)
	str("GITHUB_TOKEN", &c.GitHubToken)
	str(envPrefix+"GITHUB_TOKEN", &c.GitHubToken)
	str(envPrefix+"GITHUB_API_URL", &c.GitHubAPIURL)
	str(envPrefix+"ADDR", &c.Addr)
	str(envPrefix+"EXPORT_DIR", &c.ExportDir)
	str(envPrefix+"LOG_LEVEL", &c.Log.Level)
	str(envPrefix+"LOG_FORMAT", &c.Log.Format)
	str(envPrefix+"LOG_FILE", &c.Log.File)
	str(envPrefix+"PDF_BROWSER", &c.PDF.Browser)
	str(envPrefix+"PDF_TIMEOUT", &c.PDF.Timeout)

	if v, ok := lookup(envPrefix + "CORS_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		c.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	}
	if v, ok := lookup(envPrefix + "TOP_N"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sTOP_N: %w", envPrefix, err)
		}
		c.Ranker.TopN = n
	}
	if v, ok := lookup(envPrefix + "PDF_HEADLESS"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sPDF_HEADLESS: %w", envPrefix, err)
		}
		c.PDF.Headless = b
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("config missing addr")
	}
	if c.Ranker.TopN < 1 {
		return fmt.Errorf("ranker.top_n must be positive, got %d", c.Ranker.TopN)
	}
	if c.Ranker.MinStars < 0 {
		return fmt.Errorf("ranker.min_stars must not be negative, got %d", c.Ranker.MinStars)
	}
	if _, err := c.PDFTimeout(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log format: %s", c.Log.Format)
	}
	return nil
}

func (c Config) PDFTimeout() (time.Duration, error) {
	if strings.TrimSpace(c.PDF.Timeout) == "" {
		return 60 * time.Second, nil
	}
	d, err := time.ParseDuration(c.PDF.Timeout)
	if err != nil {
		return 0, fmt.Errorf("pdf.timeout: %w", err)
	}
	return d, nil
}

// Save writes c as YAML to path, creating parent directories. The token is never written.
func (c Config) Save(path string) error {
	c.GitHubToken = ""
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
