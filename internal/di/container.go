// Package di provides a minimal service container for module wiring.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry is the read side of the container.
type ServiceRegistry interface {
	Get(token string) any
}

// Container registers and resolves services by token.
type Container interface {
	ServiceRegistry
	Register(token string, service any)
}

type container struct {
	mu       sync.RWMutex
	services map[string]any
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{services: make(map[string]any)}
}

func (c *container) Register(token string, service any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[token] = service
}

func (c *container) Get(token string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.services[token]
}

// MustGet resolves token as T, panicking if missing or mistyped. Wiring
// errors are programmer errors and should fail loudly at startup.
func MustGet[T any](r ServiceRegistry, token string) T {
	svc := r.Get(token)
	if svc == nil {
		panic(fmt.Sprintf("di: service %q not registered", token))
	}
	typed, ok := svc.(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has unexpected type %T", token, svc))
	}
	return typed
}
