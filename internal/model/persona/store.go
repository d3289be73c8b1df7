package persona

// Store exposes persona retrieval for handlers and the reply pipeline.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
	Resolve(id string) Persona
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the persona table in seed order.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// Resolve returns the persona for id, degrading to the default persona when
// id is empty or unknown. If the store holds no default entry a bare
// Persona{ID: DefaultID} is returned.
func (s *MemoryStore) Resolve(id string) Persona {
	if p, ok := s.FindByID(id); ok {
		return p
	}
	if p, ok := s.FindByID(DefaultID); ok {
		return p
	}
	return Persona{ID: DefaultID}
}
