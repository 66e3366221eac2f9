package parser

import "strings"

// RootScope is the implicit bottom scope of every source file
const RootScope = "_root"

// NewlineMarker is the two-character placeholder terminating every input line.
// Finalize turns it into a real line break.
const NewlineMarker = `\n`

// EntryKind tags the variant held by an Entry
type EntryKind int

const (
	EntryLiteral EntryKind = iota // Text emitted verbatim
	EntryTOC                      // Table of contents, expanded at render time
	EntryHeader                   // Token value rendered through a style template
)

// Entry is one unit of content within a scope
type Entry struct {
	Kind   EntryKind
	Token  string // Style token, headers only
	Value  string // Literal text or header value
	Anchor string // Optional anchor id, headers only
}

// Literal creates a verbatim entry
func Literal(text string) Entry {
	return Entry{Kind: EntryLiteral, Value: text}
}

// Header creates a styled entry
func Header(token, value, anchor string) Entry {
	return Entry{Kind: EntryHeader, Token: token, Value: value, Anchor: anchor}
}

// entryRef addresses an entry by scope and position so it survives appends
type entryRef struct {
	scope string
	index int
}

// scopeStore keeps per-scope content buffers and the scope stack
type scopeStore struct {
	content map[string][]Entry
	order   []string // first-encountered order
	stack   []string // never empty, RootScope at the bottom
}

func newScopeStore() *scopeStore {
	return &scopeStore{
		content: map[string][]Entry{RootScope: nil},
		order:   []string{RootScope},
		stack:   []string{RootScope},
	}
}

// current returns the innermost open scope
func (s *scopeStore) current() string {
	return s.stack[len(s.stack)-1]
}

// push opens a scope, registering it in order on first sight
func (s *scopeStore) push(scope string) {
	if _, seen := s.content[scope]; !seen {
		s.content[scope] = nil
		s.order = append(s.order, scope)
	}
	s.stack = append(s.stack, scope)
}

// pop closes the innermost scope; the root is never popped
func (s *scopeStore) pop() bool {
	if len(s.stack) == 1 {
		return false
	}
	s.stack = s.stack[:len(s.stack)-1]
	return true
}

// depth is the number of scopes opened above the root
func (s *scopeStore) depth() int {
	return len(s.stack) - 1
}

// append adds an entry to the current scope and returns its handle
func (s *scopeStore) append(e Entry) entryRef {
	scope := s.current()
	s.content[scope] = append(s.content[scope], e)
	return entryRef{scope: scope, index: len(s.content[scope]) - 1}
}

// at resolves a handle to the entry it addresses
func (s *scopeStore) at(ref entryRef) *Entry {
	entries := s.content[ref.scope]
	if ref.index < 0 || ref.index >= len(entries) {
		return nil
	}
	return &entries[ref.index]
}

// qualified joins the open scopes with "::", omitting the root
func (s *scopeStore) qualified() string {
	return strings.Join(s.stack[1:], "::")
}
