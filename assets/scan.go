package assets

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/text/language"
)

// ScanLanguages lists the locales available under root: every directory directly below it
// whose name is a canonical BCP-47 language tag, that is equal to the tag's String. Other
// directories, en-us or EN included, are ignored since bundles load from the canonical path.
// The result is sorted by tag string.
func ScanLanguages(ctx context.Context, src Source, root string) ([]language.Tag, error) {
	dirs, err := src.ListDirs(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan languages in %q: %w", root, err)
	}

	tags := make([]language.Tag, 0, len(dirs))
	for _, dir := range dirs {
		tag, err := language.Parse(dir)
		if err != nil || tag.String() != dir {
			continue
		}
		tags = append(tags, tag)
	}

	sort.Slice(tags, func(i, j int) bool {
		return tags[i].String() < tags[j].String()
	})
	return tags, nil
}
