package resource

import "fmt"

// ParseError reports a malformed entry in a resource file. Line is 1-based; 0 means the
// position is unknown (structured documents do not expose line numbers per key).
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}
