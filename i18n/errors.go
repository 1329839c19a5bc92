package i18n

import "errors"

var (
	// ErrNoLocales is returned when a language change names no locale at all.
	ErrNoLocales = errors.New("no locales requested")

	// ErrLocaleDirectoryUnavailable is returned when none of the requested locale directories
	// could be enumerated. The active locale set is left untouched.
	ErrLocaleDirectoryUnavailable = errors.New("locale directory unavailable")
)
