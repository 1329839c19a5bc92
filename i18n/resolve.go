package i18n

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kdsmith18542/localekit/observability"
	"github.com/kdsmith18542/localekit/resource"
)

// Args are the named arguments of a message.
type Args map[string]any

// ArgsFrom builds Args from alternating keys and values. A trailing key without a value is
// ignored.
func ArgsFrom(kv ...any) Args {
	args := make(Args, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		args[key] = kv[i+1]
	}
	return args
}

// Resolve renders the message id, or its attribute attr when attr is not empty, with args.
//
// Bundles are tried in priority order. The first bundle that has a pattern for the exact
// (id, attr) pair wins; a bundle defining id without attr does not stop the search. Format
// problems are logged and the partial output is returned. When no bundle has an answer the
// result is ##~id~## or ##~id~@@~attr~##.
func (m *Manager) Resolve(id, attr string, args Args) string {
	return m.ResolveContext(context.Background(), id, attr, args)
}

// ResolveContext is Resolve under a caller context. The lookup runs in an i18n.resolve span,
// and ctx reaches the observer hooks.
func (m *Manager) ResolveContext(ctx context.Context, id, attr string, args Args) string {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "i18n.resolve",
		trace.WithAttributes(attribute.String("i18n.key", messageKey(id, attr))))
	defer span.End()

	m.mu.RLock()
	defer m.mu.RUnlock()

	primary := m.set.Primary().String()
	key := messageKey(id, attr)
	m.observer.OnTranslationStart(ctx, primary, key)

	for _, bundle := range m.set.Bundles() {
		pattern := lookupPattern(bundle, id, attr)
		if pattern == nil {
			continue
		}

		out, errs := m.formatter.format(bundle, pattern, args)
		if len(errs) > 0 {
			m.log.Error("failed to format message",
				zap.String("locale", bundle.Locale().String()),
				zap.String("id", id),
				zap.String("attr", attr),
				zap.String("pattern", pattern.Source),
				zap.Any("args", args),
				zap.Errors("errors", errs),
			)
		}
		span.SetAttributes(attribute.String("i18n.locale", bundle.Locale().String()))
		m.observer.OnTranslationEnd(ctx, bundle.Locale().String(), key, time.Since(start))
		return out
	}

	m.log.Error("missing message",
		zap.String("locale", primary),
		zap.String("id", id),
		zap.String("attr", attr),
	)
	span.SetAttributes(attribute.Bool("i18n.missing", true))
	m.observer.OnMissingMessage(ctx, primary, key)
	m.observer.OnTranslationEnd(ctx, primary, key, time.Since(start))
	return placeholder(id, attr)
}

// Get renders the value of message id.
func (m *Manager) Get(id string) string {
	return m.Resolve(id, "", nil)
}

// GetAttr renders attribute attr of message id.
func (m *Manager) GetAttr(id, attr string) string {
	return m.Resolve(id, attr, nil)
}

// GetWithArgs renders the value of message id with args.
func (m *Manager) GetWithArgs(id string, args Args) string {
	return m.Resolve(id, "", args)
}

// GetAttrWithArgs renders attribute attr of message id with args.
func (m *Manager) GetAttrWithArgs(id, attr string, args Args) string {
	return m.Resolve(id, attr, args)
}

func lookupPattern(b *Bundle, id, attr string) *resource.Pattern {
	msg, ok := b.Message(id)
	if !ok {
		return nil
	}
	if attr == "" {
		return msg.Value
	}
	pattern, _ := msg.Attribute(attr)
	return pattern
}

func placeholder(id, attr string) string {
	if attr == "" {
		return "##~" + id + "~##"
	}
	return "##~" + id + "~@@~" + attr + "~##"
}

func messageKey(id, attr string) string {
	if attr == "" {
		return id
	}
	return id + "." + attr
}
