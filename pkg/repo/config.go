package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/klauspost/compress/zlib"
	"github.com/odvcencio/grit/pkg/object"
)

const configFileName = "grit.toml"

const (
	DefaultUserName  = "Test User"
	DefaultUserEmail = "test@email.com"
)

// Config stores repository-local settings.
type Config struct {
	User   UserConfig   `toml:"user"`
	Core   CoreConfig   `toml:"core"`
	Ignore IgnoreConfig `toml:"ignore"`
}

// UserConfig is the identity written into author and committer lines.
type UserConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// CoreConfig holds object store settings.
type CoreConfig struct {
	// Compression is the zlib level for new objects, -1 for the default.
	Compression int `toml:"compression"`
}

// IgnoreConfig lists extra names skipped by the tree builder.
type IgnoreConfig struct {
	Names []string `toml:"names"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		User: UserConfig{
			Name:  DefaultUserName,
			Email: DefaultUserEmail,
		},
		Core: CoreConfig{
			Compression: zlib.DefaultCompression,
		},
	}
}

func configPath(gitDir string) string {
	return filepath.Join(gitDir, configFileName)
}

// readConfig reads .git/grit.toml on top of the defaults. A missing file
// yields the defaults; unknown keys are rejected.
func readConfig(gitDir string) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(configPath(gitDir), cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("read config: unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.User.Name) == "" {
		return fmt.Errorf("user.name must not be empty")
	}
	if strings.ContainsAny(c.User.Name, "<>\n") || strings.ContainsAny(c.User.Email, "<>\n") {
		return fmt.Errorf("user.name and user.email must not contain '<', '>' or newlines")
	}
	if c.Core.Compression < zlib.HuffmanOnly || c.Core.Compression > zlib.BestCompression {
		return fmt.Errorf("core.compression %d out of range", c.Core.Compression)
	}
	for _, name := range c.Ignore.Names {
		if name == "" || strings.ContainsRune(name, '/') {
			return fmt.Errorf("ignore.names: invalid name %q", name)
		}
	}
	return nil
}

// ReadConfig re-reads .git/grit.toml.
func (r *Repo) ReadConfig() (*Config, error) {
	return readConfig(r.GitDir)
}

// WriteConfig atomically writes .git/grit.toml and makes cfg the active
// configuration for subsequent tree and commit operations. The object store
// is rebuilt so new objects use cfg's compression level.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	tmp, err := os.CreateTemp(r.GitDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", object.WrapIO(err))
	}
	tmpName := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", object.WrapIO(err))
	}
	if err := os.Rename(tmpName, configPath(r.GitDir)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", object.WrapIO(err))
	}
	r.Config = cfg
	r.Store = newStore(r.GitDir, cfg, r.logger)
	return nil
}
