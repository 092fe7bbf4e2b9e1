package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/bipbuf/pkg/buffer"
)

const (
	// DefaultAppDir is the directory name under os.UserConfigDir().
	DefaultAppDir = "bipbuf"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
	// DefaultProfileName is used when no profile is selected.
	DefaultProfileName = "default"
)

// Allocator names accepted in a profile.
const (
	AllocatorHeap = "heap"
	AllocatorPool = "pool"
)

// Config is the CLI configuration: a set of named buffer profiles and the
// one currently in use.
type Config struct {
	// CurrentProfile is the name of the active profile
	CurrentProfile string `yaml:"current_profile,omitempty" json:"current_profile,omitempty"`

	// Profiles maps profile names to buffer settings
	Profiles map[string]*Profile `yaml:"profiles,omitempty" json:"profiles,omitempty"`

	configPath string
}

// Profile describes how to build a BipBuffer and drive it.
type Profile struct {
	// Name is the profile name
	Name string `yaml:"name" json:"name"`

	// Capacity is the initial storage size in bytes
	Capacity int `yaml:"capacity,omitempty" json:"capacity,omitempty"`

	// PageSize is the growth granularity in bytes
	PageSize int `yaml:"page_size,omitempty" json:"page_size,omitempty"`

	// Limit is the stream high-water mark; 0 never blocks writers
	Limit int `yaml:"limit,omitempty" json:"limit,omitempty"`

	// ChunkSize is the copy size used by pipe and bench
	ChunkSize int `yaml:"chunk_size,omitempty" json:"chunk_size,omitempty"`

	// Allocator is "heap" (default) or "pool"
	Allocator string `yaml:"allocator,omitempty" json:"allocator,omitempty"`

	// MaxCapacity caps growth when positive
	MaxCapacity int `yaml:"max_capacity,omitempty" json:"max_capacity,omitempty"`
}

// DefaultProfile returns the settings used when no profile is configured.
func DefaultProfile() *Profile {
	return &Profile{
		Name:      DefaultProfileName,
		Capacity:  64 << 10,
		PageSize:  buffer.DefaultPageSize,
		Limit:     64 << 10,
		ChunkSize: 4 << 10,
		Allocator: AllocatorHeap,
	}
}

// Validate checks the profile values.
func (p *Profile) Validate() error {
	switch {
	case p.Capacity < 0:
		return fmt.Errorf("profile %q: capacity must not be negative", p.Name)
	case p.PageSize < 0:
		return fmt.Errorf("profile %q: page_size must not be negative", p.Name)
	case p.Limit < 0:
		return fmt.Errorf("profile %q: limit must not be negative", p.Name)
	case p.ChunkSize < 0:
		return fmt.Errorf("profile %q: chunk_size must not be negative", p.Name)
	case p.MaxCapacity < 0:
		return fmt.Errorf("profile %q: max_capacity must not be negative", p.Name)
	}
	switch p.Allocator {
	case "", AllocatorHeap, AllocatorPool:
	default:
		return fmt.Errorf("profile %q: unknown allocator %q", p.Name, p.Allocator)
	}
	return nil
}

// NewAllocator builds the allocator the profile asks for.
func (p *Profile) NewAllocator() buffer.Allocator {
	var a buffer.Allocator = buffer.HeapAllocator{}
	if p.Allocator == AllocatorPool {
		a = buffer.NewPoolAllocator()
	}
	if p.MaxCapacity > 0 {
		a = buffer.LimitAllocator{Limit: p.MaxCapacity, Next: a}
	}
	return a
}

// NewBuffer builds a BipBuffer from the profile.
func (p *Profile) NewBuffer(logger *slog.Logger) (*buffer.BipBuffer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return buffer.New(p.Capacity, p.PageSize,
		buffer.WithAllocator(p.NewAllocator()),
		buffer.WithLogger(logger),
	)
}

// Set assigns one profile field by its YAML key. Size fields accept
// ParseBytes syntax.
func (p *Profile) Set(key, value string) error {
	var field *int
	switch key {
	case "capacity":
		field = &p.Capacity
	case "page_size":
		field = &p.PageSize
	case "limit":
		field = &p.Limit
	case "chunk_size":
		field = &p.ChunkSize
	case "max_capacity":
		field = &p.MaxCapacity
	case "allocator":
		p.Allocator = value
		return p.Validate()
	default:
		return fmt.Errorf("unknown profile key %q", key)
	}
	n, err := ParseBytes(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*field = n
	return p.Validate()
}

// Chunk returns ChunkSize, or 4KB when unset.
func (p *Profile) Chunk() int {
	if p.ChunkSize > 0 {
		return p.ChunkSize
	}
	return 4 << 10
}

// DefaultConfigPath returns os.UserConfigDir()/bipbuf/config.yaml.
func DefaultConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, DefaultAppDir, DefaultConfigFile), nil
}

// LoadConfig loads the configuration from the default location
func LoadConfig() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigWithPath(path)
}

// LoadConfigWithPath loads configuration from a custom path. A missing file
// yields an empty configuration.
func LoadConfigWithPath(configPath string) (*Config, error) {
	cfg := &Config{
		Profiles:   make(map[string]*Profile),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Ensure profiles map is initialized
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]*Profile)
	}
	for name, p := range cfg.Profiles {
		if p == nil {
			return nil, fmt.Errorf("profile %q is empty", name)
		}
		p.Name = name
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	cfg.configPath = configPath

	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.configPath
}

// SetProfile adds or replaces a profile
func (c *Config) SetProfile(name string, p *Profile) error {
	p.Name = name
	if err := p.Validate(); err != nil {
		return err
	}
	c.Profiles[name] = p
	return c.Save()
}

// DeleteProfile removes a profile
func (c *Config) DeleteProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	delete(c.Profiles, name)
	if c.CurrentProfile == name {
		c.CurrentProfile = ""
	}
	return c.Save()
}

// UseProfile sets the current profile
func (c *Config) UseProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	c.CurrentProfile = name
	return c.Save()
}

// GetProfile returns a specific profile
func (c *Config) GetProfile(name string) (*Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %q not found", name)
	}
	return p, nil
}

// ResolveProfile returns the named profile, else the current one, else
// DefaultProfile.
func (c *Config) ResolveProfile(name string) (*Profile, error) {
	if name != "" {
		return c.GetProfile(name)
	}
	if c.CurrentProfile != "" {
		return c.GetProfile(c.CurrentProfile)
	}
	return DefaultProfile(), nil
}

// ListProfiles returns all profile names, sorted
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
