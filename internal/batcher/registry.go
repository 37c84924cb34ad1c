package batcher

import "sync"

// Registry is an opt-in cache of named batcher instances for callers that
// want process-wide sharing. Construction via New stays side-effect free;
// sharing is explicit through a Registry rather than baked into the factory.
//
// GetOrCreate returns the existing instance for a name if one is alive,
// ignoring the factory (and therefore any new configuration) in that case.
type Registry struct {
	mu        sync.Mutex
	instances map[string]*Service
}

func NewRegistry() *Registry {
	return &Registry{instances: map[string]*Service{}}
}

// GetOrCreate returns the live instance registered under name, or invokes
// factory to build and register one. A destroyed instance is evicted and
// rebuilt.
func (r *Registry) GetOrCreate(name string, factory func() (*Service, error)) (*Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.instances[name]; ok && !s.destroyed() {
		return s, nil
	}
	s, err := factory()
	if err != nil {
		return nil, err
	}
	r.instances[name] = s
	return s, nil
}

// Destroy destroys and forgets the instance registered under name.
// It reports whether an instance existed.
func (r *Registry) Destroy(name string) bool {
	r.mu.Lock()
	s, ok := r.instances[name]
	delete(r.instances, name)
	r.mu.Unlock()
	if ok {
		s.Destroy()
	}
	return ok
}

// DestroyAll destroys every registered instance. Intended for shutdown.
func (r *Registry) DestroyAll() {
	r.mu.Lock()
	all := make([]*Service, 0, len(r.instances))
	for _, s := range r.instances {
		all = append(all, s)
	}
	r.instances = map[string]*Service{}
	r.mu.Unlock()
	for _, s := range all {
		s.Destroy()
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry { return defaultRegistry }
