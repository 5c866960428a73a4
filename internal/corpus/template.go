package corpus

import (
	"strings"
	"unicode"

	"github.com/google/vertex-ai-benchmarker/internal/bench"
)

// placeholder is the literal entity-id token that expands against the
// entity mapping instead of being passed through as a literal value.
const placeholder = "${ENTITY_ID}"

// field is one parsed entry of the brace-delimited template grammar: a key
// followed by either a quoted scalar or a nested message. Order and
// duplicate keys are preserved so repeated fields round-trip faithfully.
type field struct {
	key   string
	str   string
	msg   []field
	isMsg bool
}

func (f field) children(key string) []field {
	var out []field
	for _, c := range f.msg {
		if c.key == key {
			out = append(out, c)
		}
	}
	return out
}

func (f field) child(key string) (field, bool) {
	for _, c := range f.msg {
		if c.key == key {
			return c, true
		}
	}
	return field{}, false
}

func (f field) strings(key string) []string {
	var out []string
	for _, c := range f.children(key) {
		out = append(out, c.str)
	}
	return out
}

// parseTemplate parses the top-level Requests message: a sequence of
// requests_per_featurestore groups, each with a featurestore_id and a
// repeated requests list.
func parseTemplate(src string) ([]templateGroup, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	top, err := p.parseFields()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, bench.New(bench.InputMalformed, "unexpected trailing input in template")
	}

	var groups []templateGroup
	for _, rpf := range top.children("requests_per_featurestore") {
		g, err := parseGroup(rpf)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

type templateGroup struct {
	featurestoreID string
	requests       []templateRequest
}

type templateRequest struct {
	kind       EntityKind
	entityType string
	entityID   string
	entityIDs  []string
	featureIDs []string
}

func parseGroup(rpf field) (templateGroup, error) {
	fsID, ok := rpf.child("featurestore_id")
	if !ok {
		return templateGroup{}, bench.New(bench.InputMalformed, "requests_per_featurestore missing featurestore_id")
	}
	g := templateGroup{featurestoreID: fsID.str}
	for _, reqField := range rpf.children("requests") {
		req, err := parseRequest(reqField)
		if err != nil {
			return templateGroup{}, err
		}
		g.requests = append(g.requests, req)
	}
	return g, nil
}

func parseRequest(reqField field) (templateRequest, error) {
	single, hasSingle := reqField.child("read_feature_values_request")
	streaming, hasStreaming := reqField.child("streaming_read_feature_values_request")
	switch {
	case hasSingle && hasStreaming:
		return templateRequest{}, bench.New(bench.InputMalformed, "request carries both read_feature_values_request and streaming_read_feature_values_request")
	case hasSingle:
		return parseSingle(single)
	case hasStreaming:
		return parseStreaming(streaming)
	default:
		return templateRequest{}, bench.New(bench.InputMalformed, "request missing read_feature_values_request/streaming_read_feature_values_request")
	}
}

func parseSingle(m field) (templateRequest, error) {
	entityType, _ := m.child("entity_type")
	entityID, ok := m.child("entity_id")
	if !ok {
		return templateRequest{}, bench.New(bench.InputMalformed, "read_feature_values_request missing entity_id")
	}
	featureIDs, err := parseFeatureSelector(m)
	if err != nil {
		return templateRequest{}, err
	}
	return templateRequest{
		kind:       Single,
		entityType: entityType.str,
		entityID:   entityID.str,
		featureIDs: featureIDs,
	}, nil
}

func parseStreaming(m field) (templateRequest, error) {
	entityType, _ := m.child("entity_type")
	entityIDs := m.strings("entity_ids")
	if len(entityIDs) == 0 {
		return templateRequest{}, bench.New(bench.InputMalformed, "streaming_read_feature_values_request missing entity_ids")
	}
	featureIDs, err := parseFeatureSelector(m)
	if err != nil {
		return templateRequest{}, err
	}
	return templateRequest{
		kind:       Streaming,
		entityType: entityType.str,
		entityIDs:  entityIDs,
		featureIDs: featureIDs,
	}, nil
}

func parseFeatureSelector(m field) ([]string, error) {
	selector, ok := m.child("feature_selector")
	if !ok {
		return nil, bench.New(bench.InputMalformed, "request missing feature_selector")
	}
	matcher, ok := selector.child("id_matcher")
	if !ok {
		return nil, bench.New(bench.InputMalformed, "feature_selector missing id_matcher")
	}
	ids := matcher.strings("ids")
	if len(ids) == 0 {
		return nil, bench.New(bench.InputMalformed, "id_matcher requires at least one id")
	}
	return ids, nil
}

// --- tokenizer ---

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokColon
	tokLBrace
	tokRBrace
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(src string) ([]token, error) {
	var toks []token
	r := []rune(src)
	i := 0
	for i < len(r) {
		c := r[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '#':
			for i < len(r) && r[i] != '\n' {
				i++
			}
		case c == '{':
			toks = append(toks, token{kind: tokLBrace})
			i++
		case c == '}':
			toks = append(toks, token{kind: tokRBrace})
			i++
		case c == ':':
			toks = append(toks, token{kind: tokColon})
			i++
		case c == '"':
			start := i + 1
			i++
			var sb strings.Builder
			for i < len(r) && r[i] != '"' {
				if r[i] == '\\' && i+1 < len(r) {
					i++
				}
				sb.WriteRune(r[i])
				i++
			}
			if i >= len(r) {
				return nil, bench.Newf(bench.InputMalformed, "unterminated string starting at offset %d", start)
			}
			toks = append(toks, token{kind: tokString, text: sb.String()})
			i++
		case isIdentStart(c):
			start := i
			for i < len(r) && isIdentRune(r[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(r[start:i])})
		default:
			return nil, bench.Newf(bench.InputMalformed, "unexpected character %q in template", c)
		}
	}
	return toks, nil
}

func isIdentStart(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func isIdentRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}

// --- recursive-descent parser over tokens ---

type parser struct {
	toks []token
	pos  int
}

func (p *parser) atEnd() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() (token, bool) {
	if p.atEnd() {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

// parseFields parses a sequence of `key: "value"` or `key { ... }` entries
// until it hits a closing brace or runs out of tokens.
func (p *parser) parseFields() (field, error) {
	var root field
	root.isMsg = true
	for {
		t, ok := p.peek()
		if !ok || t.kind == tokRBrace {
			return root, nil
		}
		if t.kind != tokIdent {
			return field{}, bench.Newf(bench.InputMalformed, "expected field name, got %v", t)
		}
		p.next()
		key := t.text

		next, ok := p.next()
		if !ok {
			return field{}, bench.Newf(bench.InputMalformed, "unexpected end of input after field %q", key)
		}
		switch next.kind {
		case tokColon:
			val, ok := p.next()
			if !ok || val.kind != tokString {
				return field{}, bench.Newf(bench.InputMalformed, "expected quoted string value for field %q", key)
			}
			root.msg = append(root.msg, field{key: key, str: val.text})
		case tokLBrace:
			nested, err := p.parseFields()
			if err != nil {
				return field{}, err
			}
			closing, ok := p.next()
			if !ok || closing.kind != tokRBrace {
				return field{}, bench.Newf(bench.InputMalformed, "missing closing brace for field %q", key)
			}
			nested.key = key
			nested.isMsg = true
			root.msg = append(root.msg, nested)
		default:
			return field{}, bench.Newf(bench.InputMalformed, "expected ':' or '{' after field %q", key)
		}
	}
}

func isPlaceholder(v string) bool { return v == placeholder }
