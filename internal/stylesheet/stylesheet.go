package stylesheet

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/gubarz/mdmaker/internal/parser"
)

// sheet accepts both a flat token table and one nested under "styles"
type sheet struct {
	Styles map[string]string `toml:"styles" yaml:"styles"`
}

// Load reads a TOML or YAML style sheet mapping tokens to templates
func Load(fs afero.Fs, path string) (map[string]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading style sheet: %w", err)
	}

	flat := map[string]any{}
	var nested sheet
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &flat)
		if err == nil {
			err = toml.Unmarshal(data, &nested)
		}
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &flat)
		if err == nil {
			err = yaml.Unmarshal(data, &nested)
		}
	default:
		return nil, fmt.Errorf("unsupported style sheet format: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing style sheet %s: %w", path, err)
	}

	styles := make(map[string]string, len(flat))
	for token, value := range flat {
		if s, ok := value.(string); ok {
			styles[token] = s
		}
	}
	for token, template := range nested.Styles {
		styles[token] = template
	}

	if err := Validate(styles); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return styles, nil
}

// Validate rejects templates that have nowhere to put the token's value
func Validate(styles map[string]string) error {
	tokens := make([]string, 0, len(styles))
	for token := range styles {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	for _, token := range tokens {
		if !strings.Contains(styles[token], parser.Placeholder) {
			return fmt.Errorf("style %q has no %s placeholder", token, parser.Placeholder)
		}
	}
	return nil
}

// Register copies styles into the registry in sorted token order
func Register(registry *parser.StyleRegistry, styles map[string]string) {
	rules := make([]parser.StyleRule, 0, len(styles))
	for token, template := range styles {
		rules = append(rules, parser.StyleRule{Token: token, Template: template})
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Token < rules[j].Token })
	registry.Apply(rules)
}
