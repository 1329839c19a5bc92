package resource

// Pattern is a parsed message value: a sequence of text and placeables.
type Pattern struct {
	// Source is the pattern text as written in the resource file.
	Source   string
	Elements []Element
}

// Element is either *TextElement or *Placeable.
type Element interface {
	patternElement()
}

// TextElement is literal text.
type TextElement struct {
	Value string
}

// Placeable is an expression inside braces.
type Placeable struct {
	Expr Expression
}

func (*TextElement) patternElement() {}
func (*Placeable) patternElement()   {}

// Expression is one of the expression node types below.
type Expression interface {
	expression()
}

// StringLiteral is a quoted string, e.g. { "}" }.
type StringLiteral struct {
	Value string
}

// NumberLiteral is a numeric literal. Raw keeps the written form so that the number of
// fraction digits survives formatting and plural selection.
type NumberLiteral struct {
	Raw   string
	Value float64
}

// VariableRef references a caller supplied argument, e.g. { $count }.
type VariableRef struct {
	Name string
}

// MessageRef references another message or one of its attributes.
type MessageRef struct {
	ID   string
	Attr string
}

// TermRef references a term, e.g. { -brand } or { -brand.gender }.
type TermRef struct {
	ID   string
	Attr string
}

// FunctionRef calls a formatter function, e.g. { NUMBER($ratio, maximumFractionDigits: 2) }.
type FunctionRef struct {
	Name       string
	Positional []Expression
	Named      map[string]Expression
}

// SelectExpr chooses one of several variants based on a selector.
type SelectExpr struct {
	Selector Expression
	Variants []*Variant
}

// Variant is one branch of a select expression.
type Variant struct {
	Key     VariantKey
	Default bool
	Value   *Pattern
}

// VariantKey is either an identifier (e.g. a plural category) or a number.
type VariantKey struct {
	Name    string
	Numeric bool
	Number  float64
}

func (*StringLiteral) expression() {}
func (*NumberLiteral) expression() {}
func (*VariableRef) expression()   {}
func (*MessageRef) expression()    {}
func (*TermRef) expression()       {}
func (*FunctionRef) expression()   {}
func (*SelectExpr) expression()    {}
func (*Placeable) expression()     {}

// DefaultVariant returns the variant marked with '*'.
func (s *SelectExpr) DefaultVariant() *Variant {
	for _, v := range s.Variants {
		if v.Default {
			return v
		}
	}
	return nil
}

// TextPattern builds a pattern made of a single text element.
func TextPattern(s string) *Pattern {
	return &Pattern{Source: s, Elements: []Element{&TextElement{Value: s}}}
}
