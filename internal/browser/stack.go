package browser

// stack is a LIFO of pages. The top of the stack is the last element.
// A positive limit caps its depth; pushing onto a full stack drops the
// bottom entry.
type stack struct {
	items []Page
	limit int
}

func (s *stack) push(p Page) {
	if s.limit > 0 && len(s.items) >= s.limit {
		copy(s.items, s.items[1:])
		s.items = s.items[:len(s.items)-1]
	}
	s.items = append(s.items, p)
}

// pop removes the top page. Callers check empty first; popping an empty
// stack is a bug.
func (s *stack) pop() Page {
	if len(s.items) == 0 {
		panic("browser: pop on empty stack")
	}
	top := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return top
}

func (s *stack) empty() bool {
	return len(s.items) == 0
}

func (s *stack) len() int {
	return len(s.items)
}

func (s *stack) clear() {
	s.items = nil
}

// list returns a copy of the stack, most recent first.
func (s *stack) list() []Page {
	out := make([]Page, len(s.items))
	for i, p := range s.items {
		out[len(s.items)-1-i] = p
	}
	return out
}
