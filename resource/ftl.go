package resource

import (
	"strings"
)

// ParseFTL parses a Fluent syntax resource. Entries start at column zero with `id =` (a
// message) or `-id =` (a term); indented lines continue the current entry, and indented lines
// of the form `.name = pattern` start an attribute. Malformed entries are skipped and reported.
func ParseFTL(path string, data []byte) (*Text, []ParseError) {
	src := strings.TrimPrefix(string(data), "\ufeff")
	src = strings.ReplaceAll(src, "\r\n", "\n")
	lines := strings.Split(src, "\n")

	var (
		entries []*Message
		errs    []ParseError
	)

	for i := 0; i < len(lines); {
		line := lines[i]
		if isBlankLine(line) || strings.HasPrefix(line, "#") {
			i++
			continue
		}
		if isIndented(line) {
			errs = append(errs, ParseError{Path: path, Line: i + 1, Message: "expected message or term definition"})
			i++
			continue
		}

		// An entry owns every following blank or indented line. While a placeable is still
		// open it also owns column zero lines (a closing brace may sit there) until something
		// that looks like the next entry shows up.
		depth := braceDelta(line, 0)
		j := i + 1
		for j < len(lines) {
			next := lines[j]
			if !isBlankLine(next) && !isIndented(next) && (depth <= 0 || startsEntry(next)) {
				break
			}
			depth = braceDelta(next, depth)
			j++
		}

		msg, perr := parseEntry(lines[i:j], i+1)
		if perr != nil {
			perr.Path = path
			errs = append(errs, *perr)
		} else {
			entries = append(entries, msg)
		}
		i = j
	}

	return NewText(path, entries), errs
}

type segment struct {
	name   string
	line   int
	inline string
	rest   []string
}

func parseEntry(lines []string, lineNo int) (*Message, *ParseError) {
	head := lines[0]
	eq := strings.IndexByte(head, '=')
	if eq < 0 {
		return nil, &ParseError{Line: lineNo, Message: "expected '=' after identifier"}
	}

	id := strings.TrimSpace(head[:eq])
	term := strings.HasPrefix(id, "-")
	id = strings.TrimPrefix(id, "-")
	if !IsIdentifier(id) {
		return nil, &ParseError{Line: lineNo, Message: "invalid identifier " + quote(strings.TrimSpace(head[:eq]))}
	}

	value := &segment{line: lineNo, inline: strings.TrimSpace(head[eq+1:])}
	var attrs []*segment
	current := value
	depth := braceDelta(value.inline, 0)

	for k, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		if depth <= 0 && strings.HasPrefix(trimmed, ".") {
			aeq := strings.IndexByte(trimmed, '=')
			if aeq < 0 {
				return nil, &ParseError{Line: lineNo + k + 1, Message: "expected '=' after attribute name"}
			}
			name := strings.TrimSpace(trimmed[1:aeq])
			if !IsIdentifier(name) {
				return nil, &ParseError{Line: lineNo + k + 1, Message: "invalid attribute name " + quote(name)}
			}
			current = &segment{name: name, line: lineNo + k + 1, inline: strings.TrimSpace(trimmed[aeq+1:])}
			attrs = append(attrs, current)
			depth = braceDelta(current.inline, 0)
			continue
		}
		current.rest = append(current.rest, line)
		depth = braceDelta(line, depth)
	}

	msg := &Message{ID: id, Term: term, Line: lineNo}

	if src := value.source(); src != "" {
		pattern, err := ParsePattern(src)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Message: err.Error()}
		}
		msg.Value = pattern
	}

	for _, a := range attrs {
		src := a.source()
		if src == "" {
			return nil, &ParseError{Line: a.line, Message: "attribute " + quote(a.name) + " has no value"}
		}
		pattern, err := ParsePattern(src)
		if err != nil {
			return nil, &ParseError{Line: a.line, Message: err.Error()}
		}
		msg.Attributes = append(msg.Attributes, &Attribute{Name: a.name, Value: pattern})
	}

	switch {
	case term && msg.Value == nil:
		return nil, &ParseError{Line: lineNo, Message: "term " + quote("-"+id) + " has no value"}
	case msg.Value == nil && len(msg.Attributes) == 0:
		return nil, &ParseError{Line: lineNo, Message: "message " + quote(id) + " has neither value nor attributes"}
	}
	return msg, nil
}

// source joins the inline part and the dedented continuation lines.
func (s *segment) source() string {
	indent := -1
	for _, line := range s.rest {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" || strings.HasPrefix(trimmed, "}") || strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "*") {
			continue
		}
		if n := len(line) - len(trimmed); indent < 0 || n < indent {
			indent = n
		}
	}

	parts := make([]string, 0, len(s.rest)+1)
	if s.inline != "" {
		parts = append(parts, s.inline)
	}
	for _, line := range s.rest {
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent > 0 && n > indent {
			n = indent
		}
		parts = append(parts, strings.TrimRight(line[n:], " \t"))
	}

	joined := strings.Join(parts, "\n")
	return strings.TrimRight(strings.TrimLeft(joined, "\n"), " \t\n")
}

// braceDelta returns the placeable depth after scanning line, ignoring braces inside string
// literals.
func braceDelta(line string, depth int) int {
	inString := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inString && c == '\\':
			i++
		case inString && c == '"':
			inString = false
		case inString:
		case c == '"' && depth > 0:
			inString = true
		case c == '{':
			depth++
		case c == '}':
			depth--
		}
	}
	return depth
}

func startsEntry(line string) bool {
	if strings.HasPrefix(line, "#") {
		return true
	}
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return false
	}
	return IsIdentifier(strings.TrimPrefix(strings.TrimSpace(line[:eq]), "-"))
}

func isBlankLine(line string) bool {
	return strings.TrimSpace(line) == ""
}

func isIndented(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}

func quote(s string) string {
	return "\"" + s + "\""
}
