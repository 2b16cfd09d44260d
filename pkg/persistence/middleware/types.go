package middleware

import "github.com/aretw0/tendril/pkg/ports"

// Middleware allows wrapping a ThreadStore to add behavior.
type Middleware func(ports.ThreadStore) ports.ThreadStore

// Chain applies middlewares to a store, first middleware outermost.
func Chain(store ports.ThreadStore, middlewares ...Middleware) ports.ThreadStore {
	for i := len(middlewares) - 1; i >= 0; i-- {
		store = middlewares[i](store)
	}
	return store
}
