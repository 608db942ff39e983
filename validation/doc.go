// Package validation checks mbedjs configuration and task inputs.
//
// Struct tag validation uses go-playground/validator and reports field
// names using their mapstructure keys, so messages match the config file:
//
//	type BuildConfig struct {
//	    Target   string `mapstructure:"target" validate:"required,mbed_target"`
//	    Parallel int    `mapstructure:"parallel" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic checks collect errors the same way:
//
//	v := validation.New()
//	v.Required("target", target).OneOf("toolchain", tc, toolchains)
//	err := v.Validate()
package validation
