package tree

// store keeps named values in insertion order
type store[T any] struct {
	order []string
	items map[string]T
}

func newStore[T any]() *store[T] {
	return &store[T]{items: make(map[string]T)}
}

func (s *store[T]) get(name string) (T, bool) {
	v, ok := s.items[name]
	return v, ok
}

func (s *store[T]) has(name string) bool {
	_, ok := s.items[name]
	return ok
}

// add reports false when name is taken
func (s *store[T]) add(name string, v T) bool {
	if _, ok := s.items[name]; ok {
		return false
	}
	s.order = append(s.order, name)
	s.items[name] = v
	return true
}

func (s *store[T]) remove(name string) bool {
	if _, ok := s.items[name]; !ok {
		return false
	}
	delete(s.items, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *store[T]) len() int { return len(s.order) }

func (s *store[T]) names() []string {
	return append([]string{}, s.order...)
}

func (s *store[T]) values() []T {
	out := make([]T, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.items[n])
	}
	return out
}
