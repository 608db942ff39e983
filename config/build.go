package config

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/mbedjs/errors"
	"github.com/kbukum/mbedjs/observability"
	"github.com/kbukum/mbedjs/validation"
)

// Default repository locations cloned into the build directory.
const (
	DefaultJerryScriptRepo = "https://github.com/jerryscript-project/jerryscript"
	DefaultMbedOSRepo      = "https://github.com/ARMmbed/mbed-os"
)

// DefaultBundleCommand bundles and minifies the application entry point.
// {main}, {name} and {output} are substituted before it runs.
const DefaultBundleCommand = "npx browserify {main} --no-builtins -g uglifyify -o {output}"

// BuildConfig is the full configuration of a firmware build.
type BuildConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// Target is the mbed board name, e.g. K64F.
	Target    string `yaml:"target" mapstructure:"target" validate:"omitempty,mbed_target"`
	Toolchain string `yaml:"toolchain" mapstructure:"toolchain" validate:"oneof=GCC_ARM ARM IAR"`

	ProjectDir  string `yaml:"project_dir" mapstructure:"project_dir"`
	BuildDir    string `yaml:"build_dir" mapstructure:"build_dir" validate:"required"`
	SupportDir  string `yaml:"support_dir" mapstructure:"support_dir"`
	TemplateDir string `yaml:"template_dir" mapstructure:"template_dir"`

	// Parallel bounds concurrently running tasks. 0 means unbounded.
	Parallel    int           `yaml:"parallel" mapstructure:"parallel" validate:"gte=0"`
	TaskTimeout time.Duration `yaml:"task_timeout" mapstructure:"task_timeout" validate:"gte=0"`
	// HeapSize is the JavaScript heap in KiB.
	HeapSize int `yaml:"heap_size" mapstructure:"heap_size" validate:"gt=0"`

	Repos    ReposConfig   `yaml:"repos" mapstructure:"repos"`
	Bundler  BundlerConfig `yaml:"bundler" mapstructure:"bundler"`
	Pipeline string        `yaml:"pipeline" mapstructure:"pipeline"`

	DedupeNative bool `yaml:"dedupe_native" mapstructure:"dedupe_native"`
	Force        bool `yaml:"force" mapstructure:"force"`

	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// ReposConfig holds the git repositories fetched into the build directory.
type ReposConfig struct {
	JerryScript string `yaml:"jerryscript" mapstructure:"jerryscript" validate:"required"`
	MbedOS      string `yaml:"mbed_os" mapstructure:"mbed_os" validate:"required"`
}

// BundlerConfig configures the JavaScript bundle step.
type BundlerConfig struct {
	Command string `yaml:"command" mapstructure:"command" validate:"required"`
}

// ApplyDefaults fills in unset fields.
func (c *BuildConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Toolchain == "" {
		c.Toolchain = "GCC_ARM"
	}
	if c.ProjectDir == "" {
		c.ProjectDir = "."
	}
	if c.BuildDir == "" {
		c.BuildDir = "build"
	}
	if c.SupportDir == "" {
		c.SupportDir = "support"
	}
	if c.HeapSize == 0 {
		c.HeapSize = 16
	}
	if c.Repos.JerryScript == "" {
		c.Repos.JerryScript = DefaultJerryScriptRepo
	}
	if c.Repos.MbedOS == "" {
		c.Repos.MbedOS = DefaultMbedOSRepo
	}
	if c.Bundler.Command == "" {
		c.Bundler.Command = DefaultBundleCommand
	}
	c.Telemetry.ApplyDefaults()
}

// Validate checks the configuration. The target is optional here; commands
// that compile call RequireTarget.
func (c *BuildConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return errors.Config(err.Error())
	}
	return validation.Validate(c)
}

// RequireTarget fails when no board target is configured.
func (c *BuildConfig) RequireTarget() error {
	if c.Target == "" {
		return errors.InvalidInput("target", "a target board is required (--target or MBED_TARGET)")
	}
	return nil
}

// Resolve returns p relative to the project directory. Absolute paths pass
// through.
func (c *BuildConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectDir, p)
}

// BuildRoot returns the build directory resolved against the project.
func (c *BuildConfig) BuildRoot() string {
	return c.Resolve(c.BuildDir)
}

// HeapDefine returns the compiler define sizing the JavaScript heap.
func (c *BuildConfig) HeapDefine() string {
	return "CONFIG_MEM_HEAP_AREA_SIZE=(1024*" + strconv.Itoa(c.HeapSize) + ")"
}

// BundleCommand renders the bundler command line.
func (c *BuildConfig) BundleCommand(main, name, output string) string {
	return strings.NewReplacer(
		"{main}", main,
		"{name}", name,
		"{output}", output,
	).Replace(c.Bundler.Command)
}
