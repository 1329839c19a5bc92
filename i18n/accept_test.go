package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestParseAcceptLanguage(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   []language.Tag
	}{
		{"ordered by quality", "en;q=0.8, fr-CH, fr;q=0.9", []language.Tag{
			language.MustParse("fr-CH"), language.French, language.English,
		}},
		{"wildcard dropped", "de, *;q=0.5", []language.Tag{language.German}},
		{"only wildcard", "*", nil},
		{"wildcard between tags", "es, *;q=0.5, pt;q=0.1", []language.Tag{language.Spanish, language.Portuguese}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAcceptLanguage(tt.header))
		})
	}
}

func TestParseTags(t *testing.T) {
	tags, err := ParseTags([]string{"en-US", " fr ", ""})
	require.NoError(t, err)
	assert.Equal(t, []language.Tag{enUS, fr}, tags)

	_, err = ParseTags([]string{"en-US", "not a tag!"})
	assert.Error(t, err)
}
