package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/kdsmith18542/localekit/assets"
	"github.com/kdsmith18542/localekit/config"
	"github.com/kdsmith18542/localekit/i18n"
)

func writeLocales(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOCALEKIT_LOG_LEVEL", "error")

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

const enMain = `hello = Hello, { $name }!
title = Settings
    .tooltip = Open settings
items = { $count ->
    [one] One item
   *[other] { $count } items
}
only_en = English only
-brand = Localekit
`

func TestRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	assert.Equal(t, "localekit", cmd.Use)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Equal(t, []string{"find-missing", "languages", "lint", "resolve", "watch"}, names)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestMain_ExitsOnError(t *testing.T) {
	t.Setenv("LOCALEKIT_LOG_LEVEL", "error")

	oldArgs, oldExit := os.Args, exitFunc
	defer func() { os.Args, exitFunc = oldArgs, oldExit }()

	code := 0
	exitFunc = func(c int) { code = c }
	os.Args = []string{"localekit", "resolve"}
	main()
	assert.Equal(t, 1, code)
}

func TestLanguagesCmd(t *testing.T) {
	root := writeLocales(t, map[string]string{
		"en-US/main.ftl": enMain,
		"fr/main.ftl":    "title = Paramètres\n",
		"images/x.png":   "",
	})

	out, err := execute(t, "languages", "--root", root)
	require.NoError(t, err)
	assert.Equal(t, "en-US\nfr\n", out)

	out, err = execute(t, "languages", "--root", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No languages found\n", out)
}

func TestResolveCmd(t *testing.T) {
	root := writeLocales(t, map[string]string{
		"en-US/main.ftl": enMain,
		"fr/main.ftl":    "title = Paramètres\n",
	})

	out, err := execute(t, "resolve", "hello", "--root", root, "--arg", "name=Ada")
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada!\n", out)

	out, err = execute(t, "resolve", "items", "--root", root, "--arg", "count=3")
	require.NoError(t, err)
	assert.Equal(t, "3 items\n", out)

	out, err = execute(t, "resolve", "title", "--root", root, "--lang", "fr,en-US")
	require.NoError(t, err)
	assert.Equal(t, "Paramètres\n", out)

	out, err = execute(t, "resolve", "title", "--root", root, "--lang", "fr,en-US", "--attr", "tooltip")
	require.NoError(t, err)
	assert.Equal(t, "Open settings\n", out, "the attribute falls back to en-US")

	out, err = execute(t, "resolve", "nope", "--root", root)
	require.NoError(t, err)
	assert.Equal(t, "##~nope~##\n", out)

	_, err = execute(t, "resolve", "title", "--root", root, "--lang", "de")
	assert.ErrorIs(t, err, i18n.ErrLocaleDirectoryUnavailable)

	_, err = execute(t, "resolve", "hello", "--root", root, "--arg", "novalue")
	assert.ErrorContains(t, err, "expected name=value")
}

func TestParseArgs(t *testing.T) {
	args, err := parseArgs([]string{"n=3", "price=1.5", "name=Ada", "empty="})
	require.NoError(t, err)
	assert.Equal(t, i18n.Args{"n": int64(3), "price": 1.5, "name": "Ada", "empty": ""}, args)

	_, err = parseArgs([]string{"=x"})
	assert.Error(t, err)
}

func TestLintCmd(t *testing.T) {
	root := writeLocales(t, map[string]string{
		"en-US/main.ftl": enMain,
		"fr/main.ftl":    "title = Paramètres\n",
	})
	out, err := execute(t, "lint", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Linting 2 locale files...")
	assert.Contains(t, out, "✓ All locale files passed linting!")

	root = writeLocales(t, map[string]string{
		"en-US/a.ftl": "title = A\n",
		"en-US/b.ftl": "other = B\ntitle = B\n",
		"fr/a.ftl":    "title = A\n",
	})
	out, err = execute(t, "lint", "--root", root)
	assert.EqualError(t, err, "lint found 1 problem(s)")
	assert.Contains(t, out, `en-US/b.ftl:2: duplicate message id "title", first defined in en-US/a.ftl`)
}

func TestFindMissingCmd(t *testing.T) {
	root := writeLocales(t, map[string]string{
		"en-US/main.ftl": enMain,
		"fr/main.ftl":    "hello = Bonjour { $name }\ntitle = Paramètres\nitems = { $count } articles\n",
		"de/main.ftl":    enMain,
	})

	out, err := execute(t, "find-missing", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Locale 'de': ✓ Complete")
	assert.Contains(t, out, "Locale 'fr' is missing 2 keys:\n  - only_en\n  - title.tooltip\n")
	assert.NotContains(t, out, "brand")

	_, err = execute(t, "find-missing", "--root", root, "--strict")
	assert.EqualError(t, err, "2 missing translation(s)")

	_, err = execute(t, "find-missing", "--root", root, "--source", "it")
	assert.ErrorContains(t, err, `source locale "it" not found`)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchCmd(t *testing.T) {
	t.Setenv("LOCALEKIT_LOG_LEVEL", "error")
	t.Setenv("LOCALEKIT_TICK_INTERVAL", "10ms")
	root := writeLocales(t, map[string]string{
		"en-US/main.ftl": enMain,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	cmd := NewRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"watch", "--root", root, "title", "title.tooltip"})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("[en-US] title.tooltip = Open settings"))
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "[en-US] title = Settings")

	require.NoError(t, os.WriteFile(filepath.Join(root, "en-US", "main.ftl"), []byte("title = Changed\n"), 0o644))
	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("[en-US] title = Changed"))
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchCmd_RequiresLocalBackend(t *testing.T) {
	t.Setenv("LOCALEKIT_BACKEND", "s3")
	_, err := execute(t, "watch", "title")
	assert.ErrorContains(t, err, "watch requires the local backend")
}

func TestWatchCmd_FailsWhenLanguageCannotLoad(t *testing.T) {
	root := writeLocales(t, map[string]string{
		"en-US/main.ftl": enMain,
	})

	_, err := execute(t, "watch", "--root", root, "--lang", "de", "title")
	assert.ErrorIs(t, err, i18n.ErrLocaleDirectoryUnavailable)
}

func TestPipeline_ClosesSourceOnce(t *testing.T) {
	src := assets.NewMockSource()
	src.Put("en-US/main.ftl", enMain)

	a := &app{cfg: config.Default()}
	p, err := a.newPipeline(src)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.sched.RequestLanguage([]language.Tag{language.MustParse("en-US")})
	require.NoError(t, p.sched.Settle(ctx))
	assert.Equal(t, "Settings", p.manager.Get("title"))

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, src.Closes())
}
