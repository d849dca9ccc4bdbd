package stack

// Stack is a LIFO of T. The zero value is an empty stack ready to use.
type Stack[T any] struct {
	a []T
}

// NewStack creates a new stack instance holding elm, with the last element on top
func NewStack[T any](elm ...T) *Stack[T] {
	s := &Stack[T]{a: make([]T, 0, len(elm))}
	s.a = append(s.a, elm...)
	return s
}

// Push adds an element to the top of the stack
func (s *Stack[T]) Push(elm T) {
	s.a = append(s.a, elm)
}

// Pop removes and returns the top element of the stack.
// ok is false when the stack is empty.
func (s *Stack[T]) Pop() (elm T, ok bool) {
	if len(s.a) == 0 {
		return elm, false
	}

	elm = s.a[len(s.a)-1]
	var zero T
	s.a[len(s.a)-1] = zero
	s.a = s.a[:len(s.a)-1]

	return elm, true
}

// Peek returns the top element of the stack without removing it
func (s *Stack[T]) Peek() (elm T, ok bool) {
	if len(s.a) == 0 {
		return elm, false
	}

	return s.a[len(s.a)-1], true
}

// PeekN returns the element n positions below the top (0 is the top)
func (s *Stack[T]) PeekN(n int) (elm T, ok bool) {
	if n < 0 || n >= len(s.a) {
		return elm, false
	}

	return s.a[len(s.a)-1-n], true
}

// Size returns the number of elements on the stack
func (s *Stack[T]) Size() int {
	return len(s.a)
}

// Array returns a copy of the stack contents, bottom first
func (s *Stack[T]) Array() []T {
	out := make([]T, len(s.a))
	copy(out, s.a)
	return out
}
