package config

import (
	"errors"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"github.com/luminartech/dev-tools/pkg/ownership"
)

// Config controls the dev-tools checks for a repository. It is read from
// devtools.toml at the repository root; environment variables override the
// file on top.
type Config struct {
	CodeownersPath  string   `toml:"codeowners_path" env:"DEV_TOOLS_CODEOWNERS_PATH"`
	CodeownersOwner string   `toml:"codeowners_owner" env:"DEV_TOOLS_CODEOWNERS_OWNER"`
	Ignore          []string `toml:"ignore"`
}

// ReadConfig loads the repository config from path. A missing file yields
// the defaults; an unreadable or invalid file yields the defaults plus the
// error so callers can warn and continue.
func ReadConfig(path string) (*Config, error) {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}

	defaultConfig := &Config{
		CodeownersPath:  ownership.DefaultCodeownersPath,
		CodeownersOwner: "",
		Ignore:          []string{},
	}

	fileName := path + "devtools.toml"
	if _, err := os.Stat(fileName); errors.Is(err, os.ErrNotExist) {
		return applyEnv(defaultConfig)
	}
	file, err := os.ReadFile(fileName)
	if err != nil {
		return defaultConfig, err
	}
	config := defaultConfig
	if err := toml.Unmarshal(file, &config); err != nil {
		return defaultConfig, err
	}
	return applyEnv(config)
}

func applyEnv(config *Config) (*Config, error) {
	if err := env.Parse(config); err != nil {
		return config, err
	}
	return config, nil
}
