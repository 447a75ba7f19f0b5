// Package middleware provides composable wrappers around a
// ports.HistoryStore.
package middleware

import "github.com/aretw0/tellatale/pkg/ports"

// Middleware allows wrapping a HistoryStore to add behavior.
type Middleware func(ports.HistoryStore) ports.HistoryStore

// Chain applies middlewares so the first listed is the outermost.
func Chain(store ports.HistoryStore, middlewares ...Middleware) ports.HistoryStore {
	for i := len(middlewares) - 1; i >= 0; i-- {
		store = middlewares[i](store)
	}
	return store
}
