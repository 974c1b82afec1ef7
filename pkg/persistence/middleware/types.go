// Package middleware wraps configuration stores with extra behaviour.
package middleware

import "github.com/aretw0/transit/pkg/ports"

// Middleware allows wrapping a ConfigurationStore to add behavior.
type Middleware func(ports.ConfigurationStore) ports.ConfigurationStore

// Chain applies middlewares so that the first one is outermost.
func Chain(store ports.ConfigurationStore, mws ...Middleware) ports.ConfigurationStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
