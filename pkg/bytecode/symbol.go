package bytecode

import "sync"

// SymbolTable interns symbolic names (variables, functions, channels).
// Every name handed out is the canonical copy held by the table, and
// names are kept for the lifetime of the table.
type SymbolTable struct {
	mu     sync.RWMutex
	byName map[string]int // name -> ID
	byID   []string       // ID -> name
}

// NewSymbolTable creates a new empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		byName: make(map[string]int),
		byID:   make([]string, 0, 64),
	}
}

// Intern returns the canonical copy of name, adding it if needed.
func (st *SymbolTable) Intern(name string) string {
	st.mu.RLock()
	if id, ok := st.byName[name]; ok {
		st.mu.RUnlock()
		return st.byID[id]
	}
	st.mu.RUnlock()

	st.mu.Lock()
	defer st.mu.Unlock()

	// another writer may have won the race
	if id, ok := st.byName[name]; ok {
		return st.byID[id]
	}

	// detach from the caller's backing buffer (usually a whole source line)
	canonical := string([]byte(name))
	st.byName[canonical] = len(st.byID)
	st.byID = append(st.byID, canonical)
	return canonical
}

// Lookup reports whether name has been interned.
func (st *SymbolTable) Lookup(name string) (string, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	id, ok := st.byName[name]
	if !ok {
		return "", false
	}
	return st.byID[id], true
}

// Len returns the number of interned symbols.
func (st *SymbolTable) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.byID)
}

// All returns all symbol names in interning order.
func (st *SymbolTable) All() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]string, len(st.byID))
	copy(out, st.byID)
	return out
}
