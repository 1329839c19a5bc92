package resource

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// SyntaxError describes a malformed pattern. Offset is a byte offset into the pattern source.
type SyntaxError struct {
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Message)
}

// ParsePattern parses Fluent pattern syntax: text with { placeables }.
func ParsePattern(src string) (*Pattern, error) {
	p := &patternParser{src: src}
	elems, err := p.parseElements(false)
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.src) {
		return nil, p.errorf("unbalanced closing brace")
	}
	return &Pattern{Source: src, Elements: elems}, nil
}

type patternParser struct {
	src string
	pos int
}

func (p *patternParser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Offset: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *patternParser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *patternParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *patternParser) skipBlank() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *patternParser) skipInline() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

// parseElements reads text and placeables. Inside a variant it stops before a newline or a
// closing brace that ends the surrounding select expression.
func (p *patternParser) parseElements(inVariant bool) ([]Element, error) {
	var elems []Element
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			elems = append(elems, &TextElement{Value: text.String()})
			text.Reset()
		}
	}

	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == '{':
			flush()
			p.pos++
			expr, err := p.parsePlaceable()
			if err != nil {
				return nil, err
			}
			elems = append(elems, &Placeable{Expr: expr})
		case c == '}':
			if inVariant {
				flush()
				return elems, nil
			}
			return nil, p.errorf("unbalanced closing brace")
		case c == '\n' && inVariant:
			flush()
			return elems, nil
		default:
			text.WriteByte(c)
			p.pos++
		}
	}
	flush()
	return elems, nil
}

// parsePlaceable is called after the opening brace has been consumed.
func (p *patternParser) parsePlaceable() (Expression, error) {
	p.skipBlank()
	expr, err := p.parseInlineExpression()
	if err != nil {
		return nil, err
	}
	p.skipBlank()

	if strings.HasPrefix(p.src[p.pos:], "->") {
		p.pos += 2
		if ref, ok := expr.(*MessageRef); ok && ref.Attr == "" {
			return nil, p.errorf("message reference %q cannot be used as a selector", ref.ID)
		}
		sel, err := p.parseVariants(expr)
		if err != nil {
			return nil, err
		}
		expr = sel
		p.skipBlank()
	}

	if p.peek() != '}' {
		return nil, p.errorf("expected '}'")
	}
	p.pos++
	return expr, nil
}

func (p *patternParser) parseInlineExpression() (Expression, error) {
	if p.eof() {
		return nil, p.errorf("unterminated placeable")
	}

	c := p.src[p.pos]
	switch {
	case c == '"':
		return p.parseStringLiteral()
	case c == '$':
		p.pos++
		name := p.identifier()
		if name == "" {
			return nil, p.errorf("expected variable name")
		}
		return &VariableRef{Name: name}, nil
	case c == '{':
		p.pos++
		inner, err := p.parsePlaceable()
		if err != nil {
			return nil, err
		}
		return &Placeable{Expr: inner}, nil
	case isDigit(c), c == '-' && p.pos+1 < len(p.src) && isDigit(p.src[p.pos+1]):
		return p.parseNumberLiteral()
	case c == '-':
		p.pos++
		id := p.identifier()
		if id == "" {
			return nil, p.errorf("expected term name")
		}
		attr, err := p.attributeAccessor()
		if err != nil {
			return nil, err
		}
		if p.peek() == '(' {
			return nil, p.errorf("term arguments are not supported")
		}
		return &TermRef{ID: id, Attr: attr}, nil
	case isAlpha(c):
		id := p.identifier()
		if p.peek() == '(' {
			return p.parseCall(id)
		}
		attr, err := p.attributeAccessor()
		if err != nil {
			return nil, err
		}
		return &MessageRef{ID: id, Attr: attr}, nil
	}

	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	return nil, p.errorf("unexpected character %q in placeable", r)
}

func (p *patternParser) attributeAccessor() (string, error) {
	if p.peek() != '.' {
		return "", nil
	}
	p.pos++
	attr := p.identifier()
	if attr == "" {
		return "", p.errorf("expected attribute name")
	}
	return attr, nil
}

func (p *patternParser) parseCall(name string) (Expression, error) {
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c >= 'A' && c <= 'Z') && !isDigit(c) && c != '_' && c != '-' {
			return nil, p.errorf("invalid function name %q", name)
		}
	}
	p.pos++ // '('

	fn := &FunctionRef{Name: name}
	for {
		p.skipBlank()
		if p.eof() {
			return nil, p.errorf("unterminated call to %s", name)
		}
		if p.peek() == ')' {
			p.pos++
			return fn, nil
		}

		start := p.pos
		if isAlpha(p.peek()) {
			argName := p.identifier()
			p.skipBlank()
			if p.peek() == ':' {
				p.pos++
				p.skipBlank()
				var (
					value Expression
					err   error
				)
				if p.peek() == '"' {
					value, err = p.parseStringLiteral()
				} else {
					value, err = p.parseNumberLiteral()
				}
				if err != nil {
					return nil, err
				}
				if fn.Named == nil {
					fn.Named = make(map[string]Expression)
				}
				fn.Named[argName] = value
				goto next
			}
			p.pos = start
		}

		{
			arg, err := p.parseInlineExpression()
			if err != nil {
				return nil, err
			}
			fn.Positional = append(fn.Positional, arg)
		}

	next:
		p.skipBlank()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
		default:
			return nil, p.errorf("expected ',' or ')' in call to %s", name)
		}
	}
}

func (p *patternParser) parseVariants(selector Expression) (*SelectExpr, error) {
	sel := &SelectExpr{Selector: selector}
	defaults := 0

	for {
		p.skipBlank()
		if p.eof() {
			return nil, p.errorf("unterminated select expression")
		}
		if p.peek() == '}' {
			break
		}

		v := &Variant{}
		if p.peek() == '*' {
			v.Default = true
			defaults++
			p.pos++
		}
		if p.peek() != '[' {
			return nil, p.errorf("expected variant key")
		}
		p.pos++
		p.skipBlank()

		if isDigit(p.peek()) || p.peek() == '-' {
			lit, err := p.parseNumberLiteral()
			if err != nil {
				return nil, err
			}
			n := lit.(*NumberLiteral)
			v.Key = VariantKey{Name: n.Raw, Numeric: true, Number: n.Value}
		} else {
			name := p.identifier()
			if name == "" {
				return nil, p.errorf("expected variant key")
			}
			v.Key = VariantKey{Name: name}
		}

		p.skipBlank()
		if p.peek() != ']' {
			return nil, p.errorf("expected ']'")
		}
		p.pos++
		p.skipInline()

		start := p.pos
		elems, err := p.parseElements(true)
		if err != nil {
			return nil, err
		}
		v.Value = &Pattern{
			Source:   strings.TrimSpace(p.src[start:p.pos]),
			Elements: trimElements(elems),
		}
		sel.Variants = append(sel.Variants, v)
	}

	if len(sel.Variants) == 0 {
		return nil, p.errorf("select expression has no variants")
	}
	if defaults != 1 {
		return nil, p.errorf("select expression must have exactly one default variant, found %d", defaults)
	}
	return sel, nil
}

func (p *patternParser) parseStringLiteral() (Expression, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for {
		if p.eof() || p.peek() == '\n' {
			return nil, p.errorf("unterminated string literal")
		}
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return &StringLiteral{Value: b.String()}, nil
		case '\\':
			p.pos++
			if p.eof() {
				return nil, p.errorf("unterminated escape sequence")
			}
			switch esc := p.src[p.pos]; esc {
			case '"', '\\':
				b.WriteByte(esc)
				p.pos++
			case 'u', 'U':
				size := 4
				if esc == 'U' {
					size = 6
				}
				if p.pos+1+size > len(p.src) {
					return nil, p.errorf("invalid unicode escape")
				}
				code, err := strconv.ParseUint(p.src[p.pos+1:p.pos+1+size], 16, 32)
				if err != nil {
					return nil, p.errorf("invalid unicode escape")
				}
				b.WriteRune(rune(code))
				p.pos += 1 + size
			default:
				return nil, p.errorf("unknown escape sequence \\%c", esc)
			}
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

func (p *patternParser) parseNumberLiteral() (Expression, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	digits := p.pos
	for !p.eof() && isDigit(p.peek()) {
		p.pos++
	}
	if p.pos == digits {
		return nil, p.errorf("expected number")
	}
	if p.peek() == '.' {
		p.pos++
		frac := p.pos
		for !p.eof() && isDigit(p.peek()) {
			p.pos++
		}
		if p.pos == frac {
			return nil, p.errorf("expected fraction digits")
		}
	}
	raw := p.src[start:p.pos]
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, p.errorf("invalid number %q", raw)
	}
	return &NumberLiteral{Raw: raw, Value: value}, nil
}

func (p *patternParser) identifier() string {
	start := p.pos
	if p.eof() || !isAlpha(p.peek()) {
		return ""
	}
	p.pos++
	for !p.eof() {
		c := p.peek()
		if isAlpha(c) || isDigit(c) || c == '_' || c == '-' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

// trimElements strips leading blanks of the first text element and trailing blanks of the last.
func trimElements(elems []Element) []Element {
	if len(elems) == 0 {
		return elems
	}
	if t, ok := elems[0].(*TextElement); ok {
		t.Value = strings.TrimLeft(t.Value, " \t")
		if t.Value == "" {
			elems = elems[1:]
		}
	}
	if len(elems) == 0 {
		return elems
	}
	if t, ok := elems[len(elems)-1].(*TextElement); ok {
		t.Value = strings.TrimRight(t.Value, " \t\r")
		if t.Value == "" {
			elems = elems[:len(elems)-1]
		}
	}
	return elems
}

// IsIdentifier reports whether s is a valid message, attribute or variable name.
func IsIdentifier(s string) bool {
	if s == "" || !isAlpha(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !isAlpha(c) && !isDigit(c) && c != '_' && c != '-' {
			return false
		}
	}
	return true
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
