package i18n

import "maps"

// Resolver renders messages. *Manager implements it.
type Resolver interface {
	Resolve(id, attr string, args Args) string
}

// MsgKey is a reusable reference to a message, an optional attribute and optional arguments.
// Builder methods return modified copies.
type MsgKey struct {
	id   string
	attr string
	args Args
}

// NewMsgKey references the value of message id.
func NewMsgKey(id string) MsgKey {
	return MsgKey{id: id}
}

// NewMsgKeyAttr references attribute attr of message id.
func NewMsgKeyAttr(id, attr string) MsgKey {
	return MsgKey{id: id, attr: attr}
}

// ID returns the message id.
func (k MsgKey) ID() string { return k.id }

// Attr returns the attribute name, empty for the message value.
func (k MsgKey) Attr() string { return k.attr }

// Args returns a copy of the arguments.
func (k MsgKey) Args() Args { return maps.Clone(k.args) }

// WithAttr returns the key pointing at attribute attr.
func (k MsgKey) WithAttr(attr string) MsgKey {
	k.attr = attr
	return k
}

// WithoutAttr returns the key pointing at the message value.
func (k MsgKey) WithoutAttr() MsgKey {
	k.attr = ""
	return k
}

// WithArgs returns the key with args replacing any previous arguments.
func (k MsgKey) WithArgs(args Args) MsgKey {
	k.args = maps.Clone(args)
	return k
}

// Translate renders the key with r.
func (k MsgKey) Translate(r Resolver) string {
	return r.Resolve(k.id, k.attr, k.args)
}

func (k MsgKey) String() string {
	return messageKey(k.id, k.attr)
}

// MsgCache holds a MsgKey and the string it last rendered. Owners re-render it on every
// LanguageReady signal and whenever the arguments change. It is not safe for concurrent use.
type MsgCache struct {
	key   MsgKey
	value string
}

// NewMsgCache creates a cache seeded with a placeholder naming the key, so it is never blank
// before the first render.
func NewMsgCache(key MsgKey) *MsgCache {
	c := &MsgCache{key: key}
	if key.attr != "" {
		c.value = "##~!!~" + key.id + "~!" + key.attr + "!~!!~##"
	} else {
		c.value = "##~!!~" + key.id + "~!!~##"
	}
	return c
}

// Key returns the cached key.
func (c *MsgCache) Key() MsgKey {
	return c.key
}

// Attr points the cache at attribute a. The stored string changes on the next update.
func (c *MsgCache) Attr(a string) *MsgCache {
	c.key = c.key.WithAttr(a)
	return c
}

// NoAttr points the cache at the message value.
func (c *MsgCache) NoAttr() *MsgCache {
	c.key = c.key.WithoutAttr()
	return c
}

// Update re-renders the key.
func (c *MsgCache) Update(r Resolver) {
	c.value = c.key.Translate(r)
}

// UpdateArgs stores args on the key and re-renders it.
func (c *MsgCache) UpdateArgs(r Resolver, args Args) {
	c.key = c.key.WithArgs(args)
	c.Update(r)
}

// String returns the last rendered string.
func (c *MsgCache) String() string {
	return c.value
}
