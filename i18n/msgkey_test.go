package i18n

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type stubResolver struct {
	calls []string
	args  []Args
}

func (r *stubResolver) Resolve(id, attr string, args Args) string {
	r.calls = append(r.calls, messageKey(id, attr))
	r.args = append(r.args, args)
	return "<" + messageKey(id, attr) + ">"
}

func TestMsgKey_Builders(t *testing.T) {
	key := NewMsgKey("title")
	assert.Equal(t, "title", key.ID())
	assert.Equal(t, "", key.Attr())
	assert.Equal(t, "title", key.String())

	withAttr := key.WithAttr("tooltip")
	assert.Equal(t, "title.tooltip", withAttr.String())
	assert.Equal(t, "title", key.String(), "builders return copies")
	assert.Equal(t, key, withAttr.WithoutAttr())
	assert.Equal(t, NewMsgKeyAttr("title", "tooltip"), withAttr)

	args := Args{"n": 1}
	withArgs := key.WithArgs(args)
	args["n"] = 2
	assert.Equal(t, Args{"n": 1}, withArgs.Args(), "arguments are copied")

	r := &stubResolver{}
	assert.Equal(t, "<title.tooltip>", withAttr.Translate(r))
	withArgs.Translate(r)
	assert.Equal(t, Args{"n": 1}, r.args[1])
}

func TestArgsFrom(t *testing.T) {
	assert.Equal(t, Args{"a": 1, "b": "two"}, ArgsFrom("a", 1, "b", "two"))
	assert.Equal(t, Args{"1": true}, ArgsFrom(1, true, "dangling"))
	assert.Empty(t, ArgsFrom())
}

func TestMsgCache_SeedsAndUpdates(t *testing.T) {
	c := NewMsgCache(NewMsgKey("title"))
	assert.Equal(t, "##~!!~title~!!~##", c.String())

	attr := NewMsgCache(NewMsgKeyAttr("title", "an_attr"))
	assert.Equal(t, "##~!!~title~!an_attr!~!!~##", attr.String())

	r := &stubResolver{}
	c.Attr("tooltip")
	assert.Equal(t, "##~!!~title~!!~##", c.String(), "changing the key does not render")
	c.Update(r)
	assert.Equal(t, "<title.tooltip>", c.String())

	c.NoAttr().UpdateArgs(r, Args{"user": "Ana"})
	assert.Equal(t, "<title>", c.String())
	assert.Equal(t, Args{"user": "Ana"}, c.Key().Args())
	assert.Equal(t, Args{"user": "Ana"}, r.args[1])
}

func TestMsgCache_WithManager(t *testing.T) {
	loader := newFakeLoader()
	loader.file("locales/en-US", "test.ftl", ftl(t, "test.ftl", fixtureFTL))
	loader.file("locales/fr", "test.ftl", ftl(t, "test.ftl",
		"with_args = Texte { $str_arg } et nombre { $num_arg }\n"))
	m := NewManager("locales", loader, WithLogger(zap.NewNop()))

	title := NewMsgCache(NewMsgKeyAttr("title", "an_attr"))
	withArgs := NewMsgCache(NewMsgKey("with_args"))
	m.OnLanguageReady(func(LanguageReady) {
		title.Update(m)
		withArgs.Update(m)
	})

	ctx := context.Background()
	require.NoError(t, m.RequestLanguage(ctx, []language.Tag{enUS}))
	assert.Equal(t, "Title Attr", title.String())
	assert.Equal(t, "String arg is {$str_arg} and number arg is {$num_arg}", withArgs.String())

	withArgs.UpdateArgs(m, ArgsFrom("str_arg", "stringy", "num_arg", 42))
	assert.Equal(t, "String arg is stringy and number arg is 42", withArgs.String())

	require.NoError(t, m.RequestLanguage(ctx, []language.Tag{fr, enUS}))
	assert.Equal(t, "Texte stringy et nombre 42", withArgs.String(), "arguments survive a language change")
	assert.Equal(t, "Title Attr", title.String())
}
