package cli

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/dialog"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".talktome"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// Config represents the main configuration structure for a CLI app
type Config struct {
	// AppName is the application name
	AppName string `yaml:"-"`

	// CurrentContext is the name of the currently active context
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts is a map of context name to context configuration
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	configPath string
}

// Context is the configuration of one installation. Zero fields fall back
// to the defaults of the dialog package.
type Context struct {
	Name string `yaml:"name" json:"name"`

	// Listen is the address of the device link server.
	Listen string `yaml:"listen,omitempty" json:"listen,omitempty"`

	// Codec is the preferred link codec: json or msgpack.
	Codec string `yaml:"codec,omitempty" json:"codec,omitempty"`

	// Script is the path of a YAML dialog script override.
	Script string `yaml:"script,omitempty" json:"script,omitempty"`

	// Thresholds are the gesture thresholds in milliseconds.
	Thresholds *Thresholds `yaml:"thresholds,omitempty" json:"thresholds,omitempty"`

	// SilenceTimeout in milliseconds.
	SilenceTimeout int `yaml:"silence_timeout,omitempty" json:"silence_timeout,omitempty"`

	// LongPressDelay in milliseconds.
	LongPressDelay int `yaml:"long_press_delay,omitempty" json:"long_press_delay,omitempty"`

	Buttons *dialog.Buttons `yaml:"buttons,omitempty" json:"buttons,omitempty"`
	Voices  *dialog.Voices  `yaml:"voices,omitempty" json:"voices,omitempty"`
}

// Thresholds are gesture thresholds in milliseconds.
type Thresholds struct {
	ShortPress    int `yaml:"short_press,omitempty" json:"short_press,omitempty"`
	LongPress     int `yaml:"long_press,omitempty" json:"long_press,omitempty"`
	SequentialGap int `yaml:"sequential_gap,omitempty" json:"sequential_gap,omitempty"`
	DecisionDelay int `yaml:"decision_delay,omitempty" json:"decision_delay,omitempty"`
}

// LoadConfig loads or creates configuration for the specified app
func LoadConfig(appName string) (*Config, error) {
	return LoadConfigWithPath(appName, "")
}

// LoadConfigWithPath loads configuration from a custom path
func LoadConfigWithPath(appName, customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, DefaultBaseDir, appName, DefaultConfigFile)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		AppName:    appName,
		Contexts:   make(map[string]*Context),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	cfg.AppName = appName
	cfg.configPath = configPath
	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
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

// AddContext adds or replaces a context
func (c *Config) AddContext(name string, ctx *Context) error {
	ctx.Name = name
	c.Contexts[name] = ctx
	return c.Save()
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext sets the current context
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// GetContext returns a specific context
func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// ResolveContext returns the context by name, or the current context if
// name is empty. With neither, an empty context is returned so that every
// setting takes its default.
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name == "" {
		name = c.CurrentContext
	}
	if name == "" {
		return &Context{}, nil
	}
	return c.GetContext(name)
}

// ListContexts returns all context names, sorted
func (c *Config) ListContexts() []string {
	return slices.Sorted(maps.Keys(c.Contexts))
}

// Set assigns one setting from its string form, as used by
// "config context set".
func (ctx *Context) Set(key, value string) error {
	ms := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s: %q is not a millisecond count", key, value)
		}
		*dst = n
		return nil
	}
	index := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n >= dialog.MaxButtons {
			return fmt.Errorf("%s: %q is not an input index in [0,%d)", key, value, dialog.MaxButtons)
		}
		*dst = n
		return nil
	}
	th := func() *Thresholds {
		if ctx.Thresholds == nil {
			ctx.Thresholds = &Thresholds{}
		}
		return ctx.Thresholds
	}
	btn := func() *dialog.Buttons {
		if ctx.Buttons == nil {
			b := dialog.DefaultButtons()
			ctx.Buttons = &b
		}
		return ctx.Buttons
	}

	switch key {
	case "listen":
		ctx.Listen = value
	case "codec":
		if value != "json" && value != "msgpack" {
			return fmt.Errorf("codec: %q is not json or msgpack", value)
		}
		ctx.Codec = value
	case "script":
		ctx.Script = value
	case "silence_timeout":
		return ms(&ctx.SilenceTimeout)
	case "long_press_delay":
		return ms(&ctx.LongPressDelay)
	case "short_press":
		return ms(&th().ShortPress)
	case "long_press":
		return ms(&th().LongPress)
	case "sequential_gap":
		return ms(&th().SequentialGap)
	case "decision_delay":
		return ms(&th().DecisionDelay)
	case "top_lip":
		return index(&btn().TopLip)
	case "bottom_lip":
		return index(&btn().BottomLip)
	case "yes":
		return index(&btn().Yes)
	case "no":
		return index(&btn().No)
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// DialogConfig merges the context onto dialog.DefaultConfig and validates
// the result.
func (ctx *Context) DialogConfig() (dialog.Config, error) {
	cfg := dialog.DefaultConfig()
	msOr := func(v int, def time.Duration) time.Duration {
		if v <= 0 {
			return def
		}
		return time.Duration(v) * time.Millisecond
	}
	if t := ctx.Thresholds; t != nil {
		cfg.Thresholds.ShortPress = msOr(t.ShortPress, cfg.Thresholds.ShortPress)
		cfg.Thresholds.LongPress = msOr(t.LongPress, cfg.Thresholds.LongPress)
		cfg.Thresholds.SequentialGap = msOr(t.SequentialGap, cfg.Thresholds.SequentialGap)
		cfg.Thresholds.DecisionDelay = msOr(t.DecisionDelay, cfg.Thresholds.DecisionDelay)
	}
	cfg.SilenceTimeout = msOr(ctx.SilenceTimeout, cfg.SilenceTimeout)
	cfg.LongPressDelay = msOr(ctx.LongPressDelay, cfg.LongPressDelay)
	if ctx.Buttons != nil {
		cfg.Buttons = *ctx.Buttons
	}
	if ctx.Voices != nil {
		if ctx.Voices.Male.Name != "" {
			cfg.Voices.Male = ctx.Voices.Male
		}
		if ctx.Voices.Female.Name != "" {
			cfg.Voices.Female = ctx.Voices.Female
		}
	}
	if err := cfg.Validate(); err != nil {
		return dialog.Config{}, fmt.Errorf("context %q: %w", ctx.Name, err)
	}
	return cfg, nil
}

// LoadScript returns the dialog script of the context: the default script
// with the context's override file applied, if any.
func (ctx *Context) LoadScript() (dialog.Script, error) {
	if ctx.Script == "" {
		return dialog.DefaultScript(), nil
	}
	f, err := os.Open(ctx.Script)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()
	return dialog.LoadScript(f)
}
