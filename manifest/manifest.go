// Package manifest handles rebound.toml configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/chazu/rebound/vm"
)

// FileName is the name of the configuration file.
const FileName = "rebound.toml"

// Manifest represents a rebound.toml configuration.
type Manifest struct {
	Executor Executor `toml:"executor"`
	Server   Server   `toml:"server"`
	Journal  Journal  `toml:"journal"`
	Log      Log      `toml:"log"`

	// Dir is the directory containing the rebound.toml file (set at load time).
	Dir string `toml:"-"`
}

// Executor configures how call chains are driven.
type Executor struct {
	CPUBudget     *int64   `toml:"cpu_budget"`
	AcceptPauses  bool     `toml:"accept_pauses"`
	Buffer        string   `toml:"buffer"`
	NoisePrefixes []string `toml:"noise_prefixes"`
	Profile       bool     `toml:"profile"`
}

// Server configures the execution service.
type Server struct {
	Addr            string   `toml:"addr"`
	ContinuationTTL Duration `toml:"continuation_ttl"`
	SweepInterval   Duration `toml:"sweep_interval"`
	MaxTasks        int64    `toml:"max_tasks"`
}

// Journal configures the outcome journal.
type Journal struct {
	Path    string `toml:"path"`
	Enabled bool   `toml:"enabled"`
}

// Log configures logging.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Duration is a time.Duration written as a Go duration string ("90s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults
const (
	DefaultAddr            = "127.0.0.1:7878"
	DefaultContinuationTTL = 30 * time.Minute
	DefaultSweepInterval   = 5 * time.Minute
	DefaultMaxTasks        = 16
	DefaultJournalPath     = ".rebound/journal.db"
)

// Default returns the configuration used when no rebound.toml exists.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	if wd, err := os.Getwd(); err == nil {
		m.Dir = wd
	}
	return m
}

func (m *Manifest) applyDefaults() {
	if m.Executor.Buffer == "" {
		m.Executor.Buffer = "cached"
	}
	if m.Server.Addr == "" {
		m.Server.Addr = DefaultAddr
	}
	if m.Server.ContinuationTTL.Duration == 0 {
		m.Server.ContinuationTTL.Duration = DefaultContinuationTTL
	}
	if m.Server.SweepInterval.Duration == 0 {
		m.Server.SweepInterval.Duration = DefaultSweepInterval
	}
	if m.Server.MaxTasks == 0 {
		m.Server.MaxTasks = DefaultMaxTasks
	}
	if m.Journal.Path == "" {
		m.Journal.Path = DefaultJournalPath
	}
}

// Load parses and validates the rebound.toml file in the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes and validates configuration text and applies defaults.
func Parse(data []byte) (*Manifest, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if err := Validate(raw); err != nil {
		return nil, err
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	m.applyDefaults()
	return &m, nil
}

// FindAndLoad walks up from startDir to find a rebound.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// ExecutorConfig converts the [executor] section.
func (m *Manifest) ExecutorConfig() (vm.ExecutorConfig, error) {
	factory, ok := vm.ReturnBufferFactoryFor(m.Executor.Buffer)
	if !ok {
		return vm.ExecutorConfig{}, fmt.Errorf("unknown return buffer %q", m.Executor.Buffer)
	}
	return vm.ExecutorConfig{
		CPUBudget:     m.Executor.CPUBudget,
		AcceptPauses:  m.Executor.AcceptPauses,
		BufferFactory: factory,
		NoisePrefixes: m.Executor.NoisePrefixes,
		Profile:       m.Executor.Profile,
	}, nil
}

// JournalPath returns the absolute path of the journal database.
func (m *Manifest) JournalPath() string {
	if filepath.IsAbs(m.Journal.Path) {
		return m.Journal.Path
	}
	return filepath.Join(m.Dir, m.Journal.Path)
}

// LogFile returns the log file path, or nil to log to stderr.
func (m *Manifest) LogFile() *string {
	if m.Log.File == "" {
		return nil
	}
	path := m.Log.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.Dir, path)
	}
	return &path
}
