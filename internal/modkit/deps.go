// Package modkit provides module wiring and core deps
package modkit

import (
	"mintwatch/internal/platform/config"
	"mintwatch/internal/platform/logger"
	"mintwatch/internal/platform/store"

	"github.com/prometheus/client_golang/prometheus"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	// Store is nil when no database backend is configured
	Store *store.Store
	// Metrics receives module collectors; nil means modules keep private registries
	Metrics prometheus.Registerer
}
