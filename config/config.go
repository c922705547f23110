// Package config loads the bundler settings.
//
// Settings are read from an optional TOML file on top of the defaults,
// environment variables take precedence over both.
package config

import (
	"fmt"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/xyproto/env/v2"

	"github.com/kozakscript/bundler/resource"
)

// Environment variables overriding the configuration.
const (
	EnvInterpreter = "KOZAK_INTERPRETER"
	EnvOutputDir   = "KOZAK_OUTPUT_DIR"
	EnvExtension   = "KOZAK_EXTENSION"
	EnvTool        = "KOZAK_RESOURCE_HACKER"
	EnvNativeIcons = "KOZAK_NATIVE_ICONS"
)

type Config struct {
	Interpreter   string `toml:"interpreter"`    // base interpreter executable
	OutputDir     string `toml:"output_dir"`     // directory receiving artifacts
	Extension     string `toml:"extension"`      // artifact file extension
	RequireReader bool   `toml:"require_reader"` // reject interpreters without payload reader
	Icon          Icon   `toml:"icon"`
}

type Icon struct {
	// Tools lists the resource editor locations, probed in order.
	Tools []string `toml:"tools"`
	// Native enables writing icon resources without a resource editor.
	Native bool `toml:"native"`
}

// Default returns the settings used if nothing else is configured.
func Default() Config {
	return Config{
		Interpreter: "main.exe",
		OutputDir:   "build_exe",
		Extension:   ".exe",
		Icon: Icon{
			Tools: resource.DefaultTools(),
		},
	}
}

// Load returns the configuration stored in the given TOML file, on top of the defaults.
// An empty path skips the file. Environment overrides are applied in any case.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("load config %q: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("load config %q: unknown key %q", path, undecoded[0].String())
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	// env caches the environment on first use.
	env.Load()

	c.Interpreter = env.Str(EnvInterpreter, c.Interpreter)
	c.OutputDir = env.Str(EnvOutputDir, c.OutputDir)
	c.Extension = env.Str(EnvExtension, c.Extension)

	if tool := env.Str(EnvTool); tool != "" {
		c.Icon.Tools = append([]string{tool}, c.Icon.Tools...)
	}
	if s := env.Str(EnvNativeIcons); s != "" {
		native, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvNativeIcons, err)
		}
		c.Icon.Native = native
	}
	return nil
}
