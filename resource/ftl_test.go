package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `# Comment line
title = Test Title
  .an_attr = Title Attr
no_default =
  .with_attr = No Default With Attr
with_args = String arg is { $str_arg } and number arg is { $num_arg }
  .just_str = String arg is {$str_arg}
`

func TestParseFTL_Fixture(t *testing.T) {
	text, errs := ParseFTL("en-US/test.ftl", []byte(fixture))
	require.Empty(t, errs)
	require.Equal(t, 3, text.Len())
	assert.Equal(t, "en-US/test.ftl", text.Path())

	title, ok := text.Lookup("title")
	require.True(t, ok)
	assert.Equal(t, 2, title.Line)
	require.NotNil(t, title.Value)
	assert.Equal(t, []Element{&TextElement{Value: "Test Title"}}, title.Value.Elements)
	attr, ok := title.Attribute("an_attr")
	require.True(t, ok)
	assert.Equal(t, "Title Attr", attr.Source)

	noDefault, ok := text.Lookup("no_default")
	require.True(t, ok)
	assert.Nil(t, noDefault.Value)
	assert.Equal(t, []string{"with_attr"}, noDefault.AttributeNames())

	withArgs, ok := text.Lookup("with_args")
	require.True(t, ok)
	assert.Equal(t, []Element{
		&TextElement{Value: "String arg is "},
		&Placeable{Expr: &VariableRef{Name: "str_arg"}},
		&TextElement{Value: " and number arg is "},
		&Placeable{Expr: &VariableRef{Name: "num_arg"}},
	}, withArgs.Value.Elements)
}

func TestParseFTL_SelectExpression(t *testing.T) {
	src := `items = { $count ->
    [one] One item
   *[other] { $count } items
}
after = Still parsed
`
	text, errs := ParseFTL("items.ftl", []byte(src))
	require.Empty(t, errs)
	require.Equal(t, 2, text.Len())

	items, _ := text.Lookup("items")
	require.Len(t, items.Value.Elements, 1)
	sel, ok := items.Value.Elements[0].(*Placeable).Expr.(*SelectExpr)
	require.True(t, ok)
	assert.Equal(t, &VariableRef{Name: "count"}, sel.Selector)
	require.Len(t, sel.Variants, 2)

	assert.Equal(t, "one", sel.Variants[0].Key.Name)
	assert.False(t, sel.Variants[0].Default)
	assert.Equal(t, []Element{&TextElement{Value: "One item"}}, sel.Variants[0].Value.Elements)

	def := sel.DefaultVariant()
	require.NotNil(t, def)
	assert.Equal(t, "other", def.Key.Name)
	assert.Equal(t, []Element{
		&Placeable{Expr: &VariableRef{Name: "count"}},
		&TextElement{Value: " items"},
	}, def.Value.Elements)
}

func TestParseFTL_TermsAndReferences(t *testing.T) {
	src := `-brand = Localekit
    .gender = neuter
welcome = Welcome to { -brand }, see { about.title } or { "{" }
price = { NUMBER($amount, maximumFractionDigits: 2) } total
`
	text, errs := ParseFTL("refs.ftl", []byte(src))
	require.Empty(t, errs)

	brand, ok := text.Lookup("-brand")
	require.True(t, ok)
	assert.True(t, brand.Term)
	assert.Equal(t, "brand", brand.ID)
	_, ok = text.Lookup("brand")
	assert.False(t, ok, "terms live in their own namespace")

	welcome, _ := text.Lookup("welcome")
	assert.Equal(t, []Element{
		&TextElement{Value: "Welcome to "},
		&Placeable{Expr: &TermRef{ID: "brand"}},
		&TextElement{Value: ", see "},
		&Placeable{Expr: &MessageRef{ID: "about", Attr: "title"}},
		&TextElement{Value: " or "},
		&Placeable{Expr: &StringLiteral{Value: "{"}},
	}, welcome.Value.Elements)

	price, _ := text.Lookup("price")
	fn, ok := price.Value.Elements[0].(*Placeable).Expr.(*FunctionRef)
	require.True(t, ok)
	assert.Equal(t, "NUMBER", fn.Name)
	assert.Equal(t, []Expression{&VariableRef{Name: "amount"}}, fn.Positional)
	assert.Equal(t, &NumberLiteral{Raw: "2", Value: 2}, fn.Named["maximumFractionDigits"])
}

func TestParseFTL_MultilineDedent(t *testing.T) {
	src := "multi =\n    First line\n      indented more\n    Last line\n"
	text, errs := ParseFTL("multi.ftl", []byte(src))
	require.Empty(t, errs)
	multi, _ := text.Lookup("multi")
	assert.Equal(t, "First line\n  indented more\nLast line", multi.Value.Source)
}

func TestParseFTL_JunkIsSkipped(t *testing.T) {
	src := `good = Fine
bad = { $unclosed
  still bad
  stray
next = Next
-empty =
1invalid = nope
`
	text, errs := ParseFTL("junk.ftl", []byte(src))

	assert.Equal(t, 2, text.Len())
	_, ok := text.Lookup("good")
	assert.True(t, ok)
	_, ok = text.Lookup("next")
	assert.True(t, ok)

	require.Len(t, errs, 3)
	assert.Equal(t, 2, errs[0].Line)
	assert.Equal(t, "junk.ftl", errs[0].Path)
	assert.Equal(t, 6, errs[1].Line)
	assert.Equal(t, 7, errs[2].Line)
	assert.Contains(t, errs[2].Error(), "junk.ftl:7:")
}

func TestParseFTL_SelectNeedsOneDefault(t *testing.T) {
	src := "x = { $n ->\n    [one] a\n    [other] b\n}\n"
	text, errs := ParseFTL("sel.ftl", []byte(src))
	assert.Equal(t, 0, text.Len())
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "default variant")
}

func TestParseFTL_DuplicateKeepsFirstInLookup(t *testing.T) {
	text, errs := ParseFTL("dup.ftl", []byte("a = first\na = second\n"))
	require.Empty(t, errs)
	assert.Equal(t, 2, text.Len())
	a, _ := text.Lookup("a")
	assert.Equal(t, "first", a.Value.Source)
}

func TestParsePattern_Errors(t *testing.T) {
	cases := map[string]string{
		"lone closing brace": "a } b",
		"unterminated":       "{ $x",
		"bad escape":         `{ "\q" }`,
		"message selector":   "{ msg -> *[a] b }",
		"term call":          "{ -brand(x) }",
		"lowercase function": "{ number($x) }",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePattern(src)
			var serr *SyntaxError
			assert.ErrorAs(t, err, &serr)
		})
	}
}

func TestParsePattern_UnicodeEscape(t *testing.T) {
	p, err := ParsePattern(`{ "\u00e9 \U01F600" }`)
	require.NoError(t, err)
	assert.Equal(t, &StringLiteral{Value: "é 😀"}, p.Elements[0].(*Placeable).Expr)
}

func TestText_NilSafe(t *testing.T) {
	var text *Text
	assert.Equal(t, 0, text.Len())
	assert.Equal(t, "", text.Path())
	assert.Nil(t, text.Entries())
	_, ok := text.Lookup("x")
	assert.False(t, ok)
}
