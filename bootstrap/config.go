package bootstrap

import (
	"github.com/kbukum/mbedjs/config"
)

// Config is the interface constraint for application configuration types.
// Any struct embedding config.ServiceConfig satisfies GetServiceConfig via
// the promoted method.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
