package parser

import "strings"

// interpret applies one annotation command to the current scope
func (p *SourceParser) interpret(command, value string) error {
	opensScope := isScopeCommand(command)
	if opensScope {
		p.scopes.push(value)
		p.appendDivider()
		p.log.Debug().Str("source", p.source).Int("line", p.line).Str(command, value).Msg("scope opened")
	}

	switch command {
	case "class", "namespace", "typedef":
		title := value
		if opensScope {
			title = p.scopes.qualified()
		}
		p.scopes.append(Header(command, title, Slug(value)))
		p.links = append(p.links, Link{Kind: LinkDeclaration, Command: command, Text: value, Line: p.line})
	case "scope", "struct":
	case "toc":
		p.scopes.append(Entry{Kind: EntryTOC})
	case "date":
		p.scopes.append(Header(command, p.now().Format(p.dateLayout), ""))
	case "scopeend":
		p.appendDivider()
		if !p.scopes.pop() {
			p.log.Warn().Str("source", p.source).Int("line", p.line).Msg("scopeend without an open scope")
		}
		p.links = append(p.links, Link{Kind: LinkDepthClose, Command: command, Line: p.line})
	case "style":
		token, template, ok := strings.Cut(value, " ")
		if !ok || token == "" {
			p.log.Warn().Str("source", p.source).Int("line", p.line).Str("value", value).Msg("invalid style")
			break
		}
		p.styles = append(p.styles, StyleRule{Token: token, Template: template})
	case "function":
		if p.pending != nil {
			return p.fail("Only one brief or function allowed:"+value, p.pending.line)
		}
		ref := p.scopes.append(Header(command, value, ""))
		p.pending = &pendingSignature{ref: ref, name: strings.TrimSpace(value), line: p.line}
	case "raw":
		p.scopes.append(Literal(value))
	case "eol":
		p.scopes.append(Literal(NewlineMarker))
	case "ignore":
	default:
		p.scopes.append(Header(command, value, ""))
	}

	if opensScope {
		p.links = append(p.links, Link{Kind: LinkDepthOpen, Command: command, Line: p.line})
	}
	return nil
}

// appendDivider separates scopes with a blank line and a horizontal rule
func (p *SourceParser) appendDivider() {
	p.scopes.append(Literal(NewlineMarker))
	p.scopes.append(Literal("---" + NewlineMarker))
}
