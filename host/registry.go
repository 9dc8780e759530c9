package host

import (
	"fmt"
	"slices"
	"sync"
)

// Registry is an in-process CommandRegistry. It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	commands map[string]*registration
}

type registration struct {
	handler CommandHandler
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*registration)}
}

// RegisterCommand adds handler under id. The returned Disposable removes it;
// disposing more than once is a no-op.
func (r *Registry) RegisterCommand(id string, handler CommandHandler) (Disposable, error) {
	if handler == nil {
		return nil, fmt.Errorf("register %s: nil handler", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.commands[id]; ok {
		return nil, fmt.Errorf("register %s: %w", id, ErrCommandExists)
	}
	reg := &registration{handler: handler}
	r.commands[id] = reg

	var once sync.Once
	return DisposeFunc(func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			// Only remove our own registration; the id may have been reused.
			if r.commands[id] == reg {
				delete(r.commands, id)
			}
		})
	}), nil
}

// ExecuteCommand runs the handler registered under id. The handler runs on the
// caller's goroutine, outside the registry lock.
func (r *Registry) ExecuteCommand(id string, args ...string) error {
	r.mu.Lock()
	reg, ok := r.commands[id]
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("execute %s: %w", id, ErrUnknownCommand)
	}
	reg.handler(args...)
	return nil
}

// Commands returns the registered ids, sorted.
func (r *Registry) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.commands))
	for id := range r.commands {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
