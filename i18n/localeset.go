package i18n

import (
	"path"
	"strings"

	"golang.org/x/text/language"

	"github.com/kdsmith18542/localekit/assets"
)

// LocaleSet is the active fallback chain: one bundle per requested locale, most preferred
// first. Each bundle remembers the directory its members were enumerated from.
type LocaleSet struct {
	bundles []*Bundle
	dirs    []string
}

func (s *LocaleSet) add(dir string, b *Bundle) {
	s.bundles = append(s.bundles, b)
	s.dirs = append(s.dirs, path.Clean(dir))
}

// Bundles returns the bundles in priority order.
func (s *LocaleSet) Bundles() []*Bundle {
	if s == nil {
		return nil
	}
	return s.bundles
}

// Locales returns the locale of every bundle in priority order.
func (s *LocaleSet) Locales() []language.Tag {
	if s == nil {
		return nil
	}
	tags := make([]language.Tag, len(s.bundles))
	for i, b := range s.bundles {
		tags[i] = b.Locale()
	}
	return tags
}

// Primary returns the most preferred locale, or language.Und for an empty set.
func (s *LocaleSet) Primary() language.Tag {
	if s == nil || len(s.bundles) == 0 {
		return language.Und
	}
	return s.bundles[0].Locale()
}

// IsFullyLoaded reports whether every bundle is fully loaded.
func (s *LocaleSet) IsFullyLoaded() bool {
	return s.Remaining() == 0
}

// Remaining returns the number of members across all bundles still waiting for content.
func (s *LocaleSet) Remaining() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, b := range s.bundles {
		n += b.Remaining()
	}
	return n
}

// owner returns the bundle h belongs to.
func (s *LocaleSet) owner(h assets.Handle) *Bundle {
	if s == nil {
		return nil
	}
	for _, b := range s.bundles {
		if b.Owns(h) {
			return b
		}
	}
	return nil
}

// bundleForPath returns the bundle whose directory contains p.
func (s *LocaleSet) bundleForPath(p string) *Bundle {
	if s == nil {
		return nil
	}
	p = path.Clean(p)
	for i, dir := range s.dirs {
		if strings.HasPrefix(p, dir+"/") {
			return s.bundles[i]
		}
	}
	return nil
}

func sameLocales(a, b []language.Tag) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
