// internal/config/config.go
//
// This package handles configuration and the .setup directory structure.
// Every project that runs schema setup gets a .setup/ folder in its root
// holding the config file, logs, saved run reports and plugin task files.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// SetupDir is the name of the directory we create in each project
	SetupDir = ".setup"

	// EnvDSN overrides database.dsn.
	EnvDSN = "SETUP_DSN"
	// EnvEngine overrides database.engine.
	EnvEngine = "SETUP_ENGINE"

	defaultEngine   = "mysql"
	defaultTasksDir = ".setup/tasks"
)

const defaultProjectConfigYAML = `# schema setup configuration
version: 1

database:
  # mysql, pgsql or sqlite
  engine: mysql
  # Leave empty and export SETUP_DSN to keep credentials out of the file.
  dsn: ""

tasks:
  # YAML or Go-scripted task definitions, relative to the project directory.
  dir: .setup/tasks
  # Restrict runs to these tasks (and everything they depend on).
  targets: []

log:
  level: info
  format: text
`

// DatabaseConfig selects the engine and connection string.
type DatabaseConfig struct {
	Engine string `yaml:"engine"`
	DSN    string `yaml:"dsn"`
}

// TasksConfig controls task discovery.
type TasksConfig struct {
	Dir     string   `yaml:"dir"`
	Targets []string `yaml:"targets,omitempty"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ProjectConfig models .setup/config.yaml.
type ProjectConfig struct {
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Tasks    TasksConfig    `yaml:"tasks"`
	Log      LogConfig      `yaml:"log"`
}

// Config holds the runtime configuration.
type Config struct {
	// ProjectDir is the directory setup was invoked for
	ProjectDir string

	// SetupProjectDir is ProjectDir/.setup
	SetupProjectDir string

	Project ProjectConfig
}

// InitSetupDir creates the .setup directory structure in the given project directory.
//
// Structure created:
// .setup/
// ├── config.yaml
// ├── logs/      <- structured log and status log
// ├── reports/   <- JSON run reports
// └── tasks/     <- plugin task definitions
func InitSetupDir(projectDir string) error {
	setupDir := filepath.Join(projectDir, SetupDir)
	dirs := []string{
		filepath.Join(setupDir, "logs"),
		filepath.Join(setupDir, "reports"),
		filepath.Join(setupDir, "tasks"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(setupDir, "config.yaml"))
}

// Load reads .setup/config.yaml (defaults apply when it is missing) and then
// applies environment overrides.
func Load(projectDir string) (*Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve project dir: %w", err)
	}
	cfg := &Config{
		ProjectDir:      abs,
		SetupProjectDir: filepath.Join(abs, SetupDir),
		Project:         defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.SetupProjectDir, "logs")
}

// ReportsDir returns the path where run reports are saved
func (c *Config) ReportsDir() string {
	return filepath.Join(c.SetupProjectDir, "reports")
}

// TasksDir returns the absolute plugin task directory
func (c *Config) TasksDir() string {
	return c.Project.Tasks.Dir
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.SetupProjectDir, "config.yaml")
}

// Engine returns the configured database engine.
func (c *Config) Engine() string {
	return c.Project.Database.Engine
}

// DSN returns the configured connection string.
func (c *Config) DSN() string {
	return c.Project.Database.DSN
}

// Targets returns the configured default run targets.
func (c *Config) Targets() []string {
	return append([]string(nil), c.Project.Tasks.Targets...)
}

// Override applies non-empty CLI values on top of file and env settings.
func (c *Config) Override(engine, dsn string) error {
	if v := strings.TrimSpace(engine); v != "" {
		c.Project.Database.Engine = strings.ToLower(v)
	}
	if v := strings.TrimSpace(dsn); v != "" {
		c.Project.Database.DSN = v
	}
	return c.Project.validate()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.Project.normalize(c.ProjectDir)
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvEngine)); v != "" {
		c.Project.Database.Engine = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv(EnvDSN)); v != "" {
		c.Project.Database.DSN = v
	}
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:  1,
		Database: DatabaseConfig{Engine: defaultEngine},
		Tasks:    TasksConfig{Dir: defaultTasksDir},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Database.Engine) == "" {
		pc.Database.Engine = defaultEngine
	}
	if strings.TrimSpace(pc.Tasks.Dir) == "" {
		pc.Tasks.Dir = defaultTasksDir
	}
	if strings.TrimSpace(pc.Log.Level) == "" {
		pc.Log.Level = "info"
	}
	if strings.TrimSpace(pc.Log.Format) == "" {
		pc.Log.Format = "text"
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Database.Engine = strings.ToLower(strings.TrimSpace(pc.Database.Engine))
	pc.Database.DSN = strings.TrimSpace(pc.Database.DSN)
	pc.Tasks.Dir = resolvePath(base, pc.Tasks.Dir)
	targets := pc.Tasks.Targets[:0]
	for _, target := range pc.Tasks.Targets {
		if trimmed := strings.TrimSpace(target); trimmed != "" {
			targets = append(targets, trimmed)
		}
	}
	pc.Tasks.Targets = targets
	pc.Log.Level = strings.ToLower(strings.TrimSpace(pc.Log.Level))
	pc.Log.Format = strings.ToLower(strings.TrimSpace(pc.Log.Format))
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Database.Engine == "" {
		return fmt.Errorf("database.engine is required")
	}
	switch pc.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	switch pc.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
