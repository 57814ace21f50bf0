package command

import (
	"sort"
	"sync"
)

// Registry holds the static command set. Commands are registered at startup;
// the only later mutation is Remove, used to drop a registration the platform
// still advertises but the bot no longer carries.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Descriptor
	subs     map[string]*SubDescriptor
}

func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*Descriptor),
		subs:     make(map[string]*SubDescriptor),
	}
}

func (r *Registry) Register(d *Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[d.Name] = d
}

func (r *Registry) RegisterSub(sd *SubDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sd.Path] = sd
}

func (r *Registry) Get(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.commands[name]
	return d, ok
}

func (r *Registry) GetSub(path string) (*SubDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sd, ok := r.subs[path]
	return sd, ok
}

func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.commands, name)
	prefix := name + "."
	for path := range r.subs {
		if len(path) > len(prefix) && path[:len(prefix)] == prefix {
			delete(r.subs, path)
		}
	}
}

func (r *Registry) All() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*Descriptor, 0, len(r.commands))
	for _, d := range r.commands {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}
