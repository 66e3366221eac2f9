package parser

import (
	"sort"
	"strings"
	"sync"
)

// DefaultStyle is used for tokens without a registered style
const DefaultStyle = "##### %1"

// Placeholder marks where a token's value goes in a style template
const Placeholder = "%1"

// StyleRule is a single @style directive collected while parsing
type StyleRule struct {
	Token    string
	Template string
}

// StyleRegistry maps annotation tokens to markdown templates
type StyleRegistry struct {
	mu     sync.RWMutex
	styles map[string]string
}

// NewStyleRegistry creates a registry holding the built-in styles
func NewStyleRegistry() *StyleRegistry {
	return &StyleRegistry{
		styles: map[string]string{
			"namespace":     "### %1",
			"class":         "#### %1",
			"struct":        "#### %1",
			"param":         "###### *Param:* %1",
			"return":        "###### *Return:* %1",
			"templateparam": "###### *Template arg:* %1",
			"brief":         "###### %1",
			"date":          "###### %1",
		},
	}
}

// SetStyle registers or replaces the template for a token
func (r *StyleRegistry) SetStyle(token, template string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.styles[token] = template
}

// Style returns the template for a token, falling back to DefaultStyle
func (r *StyleRegistry) Style(token string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if style, ok := r.styles[token]; ok {
		return style
	}
	return DefaultStyle
}

// Apply registers rules in order, later rules winning
func (r *StyleRegistry) Apply(rules []StyleRule) {
	if len(rules) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rule := range rules {
		r.styles[rule.Token] = rule.Template
	}
}

// Render substitutes value into the token's template
func (r *StyleRegistry) Render(token, value string) string {
	return strings.ReplaceAll(r.Style(token), Placeholder, value)
}

// Tokens lists registered tokens in sorted order
func (r *StyleRegistry) Tokens() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tokens := make([]string, 0, len(r.styles))
	for token := range r.styles {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// Clone returns an independent copy of the registry
func (r *StyleRegistry) Clone() *StyleRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	styles := make(map[string]string, len(r.styles))
	for token, template := range r.styles {
		styles[token] = template
	}
	return &StyleRegistry{styles: styles}
}
