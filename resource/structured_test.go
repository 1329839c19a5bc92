package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTOML(t *testing.T) {
	src := `
-brand = "Localekit"
title = "Welcome to { -brand }"

[login]
value = "Log in"
attributes = { tooltip = "Sign in", aria = "Login button" }

[only_attrs.attributes]
placeholder = "Search"
`
	text, errs := ParseTOML("en/messages.toml", []byte(src))
	require.Empty(t, errs)
	require.Equal(t, 4, text.Len())

	keys := make([]string, 0, text.Len())
	for _, e := range text.Entries() {
		keys = append(keys, e.Key())
	}
	assert.Equal(t, []string{"-brand", "login", "only_attrs", "title"}, keys)

	login, _ := text.Lookup("login")
	assert.Equal(t, "Log in", login.Value.Source)
	assert.Equal(t, []string{"aria", "tooltip"}, login.AttributeNames())

	onlyAttrs, _ := text.Lookup("only_attrs")
	assert.Nil(t, onlyAttrs.Value)
	assert.Equal(t, []string{"placeholder"}, onlyAttrs.AttributeNames())
}

func TestParseTOML_SyntaxError(t *testing.T) {
	text, errs := ParseTOML("bad.toml", []byte("title = \"ok\"\nbroken = = \n"))
	assert.Equal(t, 0, text.Len())
	require.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].Line)
}

func TestParseYAML(t *testing.T) {
	src := `
greeting: "Hello, { $name }!"
cart:
  value: "{ $count -> \n [one] One item\n *[other] { $count } items\n}"
  attributes:
    title: Your cart
broken: "{ $unclosed"
`
	text, errs := ParseYAML("en/messages.yaml", []byte(src))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "broken")
	assert.Equal(t, 2, text.Len())

	cart, ok := text.Lookup("cart")
	require.True(t, ok)
	_, isSelect := cart.Value.Elements[0].(*Placeable).Expr.(*SelectExpr)
	assert.True(t, isSelect)
	assert.Equal(t, []string{"title"}, cart.AttributeNames())
}

func TestParseJSON(t *testing.T) {
	text, errs := ParseJSON("en/messages.json", []byte(`{"hello": "Hello", "-brand": "Localekit", "n": 3}`))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "unsupported value")
	assert.Equal(t, 2, text.Len())

	_, errs = ParseJSON("bad.json", []byte("{\n  \"a\": \"x\",\n  oops\n}"))
	require.Len(t, errs, 1)
	assert.Equal(t, 3, errs[0].Line)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{".ftl", ".json", ".toml", ".yaml", ".yml"}, r.Extensions())
	assert.True(t, r.Supports("en-US/main.FTL"))
	assert.False(t, r.Supports("en-US/README.md"))
	assert.False(t, r.Supports("en-US/noext"))

	text, errs := r.Parse("en-US/README.md", []byte("# hi"))
	assert.Equal(t, 0, text.Len())
	require.Len(t, errs, 1)

	called := false
	r.Register("properties", ParserFunc(func(path string, data []byte) (*Text, []ParseError) {
		called = true
		return NewText(path, []*Message{{ID: "k", Value: TextPattern(string(data))}}), nil
	}))
	text, errs = r.Parse("en-US/app.properties", []byte("v"))
	assert.True(t, called)
	assert.Empty(t, errs)
	assert.Equal(t, 1, text.Len())
}
