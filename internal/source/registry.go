package source

import "fmt"

// Registry is the ordered collection of tracked sources. Insertion order is the display order.
// Addresses are stored and looked up in their Normalize form. It is not safe for concurrent mutation; a session drives it sequentially.
type Registry struct {
	sources []Source
	index   map[string]int
}

// NewRegistry builds a registry from a persisted list, keeping its order.
// Entries with invalid or repeated addresses are dropped.
func NewRegistry(sources []Source) *Registry {
	r := &Registry{index: make(map[string]int)}
	for _, s := range sources {
		if !IsValidURL(s.Address) {
			continue
		}
		s.Address = Normalize(s.Address)
		if _, exists := r.index[s.Address]; exists {
			continue
		}
		r.index[s.Address] = len(r.sources)
		r.sources = append(r.sources, s)
	}
	return r
}

// RemoveResult describes the registry after a removal.
type RemoveResult struct {
	Removed     Source
	Empty       bool
	ChatEnabled bool
}

// Add appends address with StatusLoading.
func (r *Registry) Add(address string) (Source, error) {
	return r.insert(address, StatusLoading, false)
}

// AddDiscovered appends an address found by sitemap discovery. It starts Ready and is never fetched.
func (r *Registry) AddDiscovered(address string) (Source, error) {
	return r.insert(address, StatusReady, true)
}

func (r *Registry) insert(address string, status Status, discovered bool) (Source, error) {
	if err := Validate(address); err != nil {
		return Source{}, err
	}
	address = Normalize(address)
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if _, exists := r.index[address]; exists {
		return Source{}, fmt.Errorf("%w: %s", ErrDuplicateSource, address)
	}
	s := Source{Address: address, Status: status, Discovered: discovered}
	r.index[address] = len(r.sources)
	r.sources = append(r.sources, s)
	return s, nil
}

// UpdateStatus moves a source along its lifecycle: Loading -> Ready|Failed.
// Ready and Failed sources may go back to Loading for a refetch.
func (r *Registry) UpdateStatus(address string, status Status) error {
	i, ok := r.lookup(address)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	current := r.sources[i].Status
	if !validTransition(current, status) {
		return fmt.Errorf("%w: %s -> %s for %s", ErrInvalidTransition, current, status, address)
	}
	r.sources[i].Status = status
	return nil
}

func validTransition(from, to Status) bool {
	switch from {
	case StatusLoading:
		return to == StatusReady || to == StatusFailed
	case StatusReady, StatusFailed:
		return to == StatusLoading
	}
	return false
}

// Remove deletes address and reports whether chat may stay enabled.
func (r *Registry) Remove(address string) (RemoveResult, error) {
	i, ok := r.lookup(address)
	if !ok {
		return RemoveResult{}, fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	removed := r.sources[i]
	r.sources = append(r.sources[:i], r.sources[i+1:]...)
	r.reindex()
	return RemoveResult{
		Removed:     removed,
		Empty:       len(r.sources) == 0,
		ChatEnabled: r.ChatEnabled(),
	}, nil
}

func (r *Registry) reindex() {
	r.index = make(map[string]int, len(r.sources))
	for i, s := range r.sources {
		r.index[s.Address] = i
	}
}

// Reset drops every source.
func (r *Registry) Reset() {
	r.sources = nil
	r.index = make(map[string]int)
}

// Get returns the source tracked under address.
func (r *Registry) Get(address string) (Source, bool) {
	i, ok := r.lookup(address)
	if !ok {
		return Source{}, false
	}
	return r.sources[i], true
}

// Has reports whether address is tracked.
func (r *Registry) Has(address string) bool {
	_, ok := r.lookup(address)
	return ok
}

func (r *Registry) lookup(address string) (int, bool) {
	i, ok := r.index[Normalize(address)]
	return i, ok
}

// List returns a copy of the sources in insertion order.
func (r *Registry) List() []Source {
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// ReadyAddresses returns the addresses whose status is Ready, in order.
func (r *Registry) ReadyAddresses() []string {
	var out []string
	for _, s := range r.sources {
		if s.Status == StatusReady {
			out = append(out, s.Address)
		}
	}
	return out
}

// ChatEnabled is true when at least one source is Ready.
func (r *Registry) ChatEnabled() bool {
	for _, s := range r.sources {
		if s.Status == StatusReady {
			return true
		}
	}
	return false
}

// Len returns the number of tracked sources.
func (r *Registry) Len() int {
	return len(r.sources)
}
