package i18n

import (
	"golang.org/x/text/language"

	"github.com/kdsmith18542/localekit/assets"
	"github.com/kdsmith18542/localekit/resource"
)

// NotificationKind is the kind of change an asset notification reports.
type NotificationKind int

const (
	// Discovered announces a new resource file. Its content may follow later.
	Discovered NotificationKind = iota
	// ContentAvailable delivers the first content of a file.
	ContentAvailable
	// ContentChanged delivers new content of a file.
	ContentChanged
	// Removed reports that a file is gone.
	Removed
)

func (k NotificationKind) String() string {
	switch k {
	case Discovered:
		return "discovered"
	case ContentAvailable:
		return "content_available"
	case ContentChanged:
		return "content_changed"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Notification is one asset change applied by Manager.Apply.
type Notification struct {
	Kind   NotificationKind
	Handle assets.Handle
	Path   string
	// Text is the parsed content, when the kind carries content.
	Text *resource.Text
}

// LanguageReady is delivered to listeners once the active locale set is fully loaded.
type LanguageReady struct {
	Locales []language.Tag
	Primary language.Tag
	// Reload is false for the first signal after a language change and true for signals
	// caused by later file changes.
	Reload bool
}
