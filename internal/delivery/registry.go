// internal/delivery/registry.go
package delivery

import (
	"fmt"
	"strings"
	"sync"
)

// Handler delivers a message to a session identified by sessionKey.
type Handler func(sessionKey, message string) error

type route struct {
	prefix  string
	handler Handler
}

// Registry routes outbound messages, reminder prompts included, to the
// frontend owning a session. Ownership is decided by the session key prefix
// (e.g. "telegram:", "tui:").
type Registry struct {
	mu     sync.RWMutex
	routes []route
}

// NewRegistry creates an empty delivery registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a handler for session keys starting with prefix. Routes are
// matched in registration order.
func (r *Registry) Register(prefix string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route{prefix: prefix, handler: handler})
}

// Deliver invokes the first handler whose prefix matches the session key.
// An unmatched key is an error.
func (r *Registry) Deliver(sessionKey, message string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rt := range r.routes {
		if strings.HasPrefix(sessionKey, rt.prefix) {
			return rt.handler(sessionKey, message)
		}
	}
	return fmt.Errorf("no delivery handler for session key: %s", sessionKey)
}
