package i18n

import (
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/kdsmith18542/localekit/assets"
	"github.com/kdsmith18542/localekit/resource"
)

type member struct {
	handle assets.Handle
	loaded bool
	text   *resource.Text
}

// Bundle is the compiled message table of one locale: the resource files found in the
// locale's directory plus the merge of every loaded file.
//
// Content that arrives for the first time is merged with one-shot semantics: an id already
// present in the bundle is reported as a duplicate and the first definition stays. Content
// that replaces an already loaded file is merged with override semantics so edits always take
// effect. A Bundle is not safe for concurrent mutation; the Manager serializes writers.
type Bundle struct {
	locale  language.Tag
	log     *zap.Logger
	members []*member
	entries map[string]*resource.Message
}

// NewBundle creates an empty bundle for locale.
func NewBundle(locale language.Tag, log *zap.Logger) *Bundle {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bundle{
		locale:  locale,
		log:     log,
		entries: make(map[string]*resource.Message),
	}
}

// Locale returns the locale the bundle targets.
func (b *Bundle) Locale() language.Tag {
	return b.locale
}

// AddMember registers a resource file. A nil text leaves the member unloaded; otherwise the
// text is merged right away with one-shot semantics. Adding a handle twice does nothing.
func (b *Bundle) AddMember(h assets.Handle, text *resource.Text) {
	if b.Owns(h) {
		return
	}
	m := &member{handle: h}
	b.members = append(b.members, m)
	if text != nil {
		m.loaded = true
		m.text = text
		b.merge(text, false)
	}
}

// MarkLoaded merges the first content of a member, rejecting ids the bundle already defines.
// It reports whether the bundle changed.
func (b *Bundle) MarkLoaded(h assets.Handle, text *resource.Text) bool {
	m := b.member(h)
	if m == nil || text == nil || (m.loaded && m.text == text) {
		return false
	}
	m.loaded = true
	m.text = text
	b.merge(text, false)
	return true
}

// MarkReloaded merges new content of a member, replacing every id it defines. It reports
// whether the bundle changed.
func (b *Bundle) MarkReloaded(h assets.Handle, text *resource.Text) bool {
	m := b.member(h)
	if m == nil || text == nil || (m.loaded && m.text == text) {
		return false
	}
	m.loaded = true
	m.text = text
	b.merge(text, true)
	return true
}

// RemoveMember drops a member and rebuilds the bundle from the remaining loaded members, in
// member order. It reports whether h was a member.
func (b *Bundle) RemoveMember(h assets.Handle) bool {
	for i, m := range b.members {
		if m.handle != h {
			continue
		}
		b.members = append(b.members[:i], b.members[i+1:]...)
		b.rebuild()
		return true
	}
	return false
}

// IsFullyLoaded reports whether every member has content. A bundle without members is
// fully loaded.
func (b *Bundle) IsFullyLoaded() bool {
	return b.Remaining() == 0
}

// Remaining returns the number of members still waiting for content.
func (b *Bundle) Remaining() int {
	n := 0
	for _, m := range b.members {
		if !m.loaded {
			n++
		}
	}
	return n
}

// Owns reports whether h is a member of the bundle.
func (b *Bundle) Owns(h assets.Handle) bool {
	return b.member(h) != nil
}

// IsLoaded reports whether h is a member with content.
func (b *Bundle) IsLoaded(h assets.Handle) bool {
	m := b.member(h)
	return m != nil && m.loaded
}

// Handles lists the members in discovery order.
func (b *Bundle) Handles() []assets.Handle {
	handles := make([]assets.Handle, len(b.members))
	for i, m := range b.members {
		handles[i] = m.handle
	}
	return handles
}

// Message returns the message defined under id.
func (b *Bundle) Message(id string) (*resource.Message, bool) {
	msg, ok := b.entries[id]
	if !ok || msg.Term {
		return nil, false
	}
	return msg, true
}

// Term returns the term defined under id, without the leading dash.
func (b *Bundle) Term(id string) (*resource.Message, bool) {
	msg, ok := b.entries["-"+id]
	return msg, ok
}

// Len returns the number of messages and terms in the bundle.
func (b *Bundle) Len() int {
	return len(b.entries)
}

func (b *Bundle) member(h assets.Handle) *member {
	for _, m := range b.members {
		if m.handle == h {
			return m
		}
	}
	return nil
}

func (b *Bundle) merge(text *resource.Text, override bool) {
	for _, entry := range text.Entries() {
		key := entry.Key()
		if override {
			// Within one file the first definition of an id wins.
			if first, _ := text.Lookup(key); first != entry {
				continue
			}
			b.entries[key] = entry
			continue
		}
		if _, exists := b.entries[key]; exists {
			b.log.Error("duplicate message id",
				zap.String("locale", b.locale.String()),
				zap.String("id", key),
				zap.String("path", text.Path()),
			)
			continue
		}
		b.entries[key] = entry
	}
}

func (b *Bundle) rebuild() {
	b.entries = make(map[string]*resource.Message, len(b.entries))
	for _, m := range b.members {
		if m.loaded {
			b.merge(m.text, true)
		}
	}
}
