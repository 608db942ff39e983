package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/kbukum/mbedjs/errors"
)

// EnvPrefix is the prefix of environment variables mapped onto config keys.
// MBEDJS_BUILD_DIR sets build_dir, MBEDJS_REPOS_MBED_OS sets repos.mbed_os.
const EnvPrefix = "MBEDJS_"

// envAliases maps well-known variables onto config keys.
var envAliases = map[string]string{
	"MBED_TARGET": "target",
}

// Resolver finds the config and .env files of a project.
type Resolver struct {
	Fs afero.Fs
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths if provided, otherwise searches the
// project directory for them.
func (r *Resolver) ResolveFiles(opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = r.first(opts.ProjectDir, "mbedjs.yml", "mbedjs.yaml", ".mbedjs.yml", "config/mbedjs.yml")
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = r.first(opts.ProjectDir, ".env.local", ".env")
	}
	return resolved
}

func (r *Resolver) first(dir string, names ...string) string {
	for _, name := range names {
		p := filepath.Join(dir, name)
		if ok, _ := afero.Exists(r.Fs, p); ok {
			return p
		}
	}
	return ""
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	Fs         afero.Fs
	ProjectDir string
	ConfigFile string // explicit config file (optional)
	EnvFile    string // explicit .env file (optional)
	Environ    []string
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFs sets the filesystem config files are read from.
func WithFs(fs afero.Fs) LoaderOption {
	return func(lc *LoaderConfig) { lc.Fs = fs }
}

// WithProjectDir sets the directory searched for config files.
func WithProjectDir(dir string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ProjectDir = dir }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnviron replaces the process environment as the source of overrides.
func WithEnviron(env []string) LoaderOption {
	return func(lc *LoaderConfig) { lc.Environ = env }
}

// Load reads the build configuration, applies defaults and validates it.
func Load(opts ...LoaderOption) (*BuildConfig, error) {
	var cfg BuildConfig
	if err := LoadConfig(&cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads configuration into cfg. Sources, lowest precedence
// first: the config file, the .env file, the environment.
func LoadConfig(cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{ProjectDir: "."}
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.Fs == nil {
		lc.Fs = afero.NewOsFs()
	}
	if lc.Environ == nil {
		lc.Environ = os.Environ()
	}

	resolver := &Resolver{Fs: lc.Fs}
	files := resolver.ResolveFiles(lc)
	return loadFromResolvedFiles(cfg, files, lc)
}

func loadFromResolvedFiles(cfg any, files ResolvedFiles, lc LoaderConfig) error {
	v := viper.New()
	v.SetFs(lc.Fs)

	// 1. YAML config file
	if files.ConfigFile != "" {
		if ok, _ := afero.Exists(lc.Fs, files.ConfigFile); !ok {
			return errors.NotFound("config file", files.ConfigFile)
		}
		v.SetConfigFile(files.ConfigFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return errors.Config(fmt.Sprintf("failed to read config file %s", files.ConfigFile)).WithCause(err)
		}
	}

	// 2. .env file, then 3. the environment, which wins
	if files.EnvFile != "" {
		env, err := readEnvFile(lc.Fs, files.EnvFile)
		if err != nil {
			return err
		}
		bindEnv(v, env)
	}
	bindEnv(v, environMap(lc.Environ))

	if err := v.Unmarshal(cfg); err != nil {
		return errors.Config("failed to decode configuration").WithCause(err)
	}
	return nil
}

func readEnvFile(fs afero.Fs, path string) (map[string]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Config(fmt.Sprintf("failed to open env file %s", path)).WithCause(err)
	}
	defer f.Close()
	env, err := godotenv.Parse(f)
	if err != nil {
		return nil, errors.Config(fmt.Sprintf("failed to parse env file %s", path)).WithCause(err)
	}
	return env, nil
}

func environMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, val, ok := strings.Cut(kv, "=")
		if ok {
			m[k] = val
		}
	}
	return m
}

// bindEnv maps MBEDJS_ variables and aliases onto config keys, setting every
// nesting variant of the key so both build_dir and repos.mbed_os resolve.
// Prefixed variables win over aliases.
func bindEnv(v *viper.Viper, env map[string]string) {
	for alias, key := range envAliases {
		if value, ok := env[alias]; ok {
			v.Set(key, value)
		}
	}
	for key, value := range env {
		name, ok := strings.CutPrefix(key, EnvPrefix)
		if !ok || name == "" {
			continue
		}
		for _, variant := range generateEnvKeyVariants(name) {
			v.Set(variant, value)
		}
	}
}

// generateEnvKeyVariants creates all possible key variants for environment variable binding.
// Examples:
//
//	BUILD_DIR -> [build_dir, build.dir]
//	REPOS_MBED_OS -> [repos_mbed_os, repos.mbed.os, repos.mbed_os, repos_mbed.os]
func generateEnvKeyVariants(envKey string) []string {
	lowerKey := strings.ToLower(envKey)
	parts := strings.Split(lowerKey, "_")

	if len(parts) <= 1 {
		return []string{lowerKey}
	}

	variants := []string{
		lowerKey,
		strings.ReplaceAll(lowerKey, "_", "."),
	}

	// progressive nesting: a.b_c, a.b.c_d ...
	for i := 1; i < len(parts); i++ {
		prefix := strings.Join(parts[:i], ".")
		suffix := strings.Join(parts[i:], "_")
		variants = append(variants, prefix+"."+suffix)
	}

	// trailing nesting: a_b.c
	if len(parts) >= 3 {
		prefix := strings.Join(parts[:len(parts)-1], "_")
		variants = append(variants, prefix+"."+parts[len(parts)-1])
	}

	return removeDuplicates(variants)
}

// removeDuplicates removes duplicate strings from a slice.
func removeDuplicates(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))

	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}

	return result
}
