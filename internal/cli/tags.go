package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophjournal/internal/analytics"
)

// Tags lists every tag with its entry count, most used first.
func (a *App) Tags(ctx context.Context, _ []string) error {
	es, err := a.entries.GetAllEntries(ctx)
	if err != nil {
		return err
	}
	counts := analytics.TopTags(es, 0)
	tags, err := a.entries.GetAllTags(ctx)
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		fmt.Fprintln(a.out, "No tags yet.")
		return nil
	}

	known := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		known[t] = struct{}{}
	}
	for _, tc := range counts {
		if _, ok := known[tc.Tag]; ok {
			fmt.Fprintf(a.out, "#%-30s %d\n", tc.Tag, tc.Count)
		}
	}
	return nil
}

func (a *App) RemoveTag(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	tag := strings.TrimPrefix(args[0], "#")
	if !Confirm(a.reader, fmt.Sprintf("Remove #%s from every entry?", tag), a.out) {
		return nil
	}
	n, err := a.entries.RemoveTagFromAllEntries(ctx, tag)
	fmt.Fprintf(a.out, "Removed #%s from %d entries\n", tag, n)
	return err
}

func (a *App) RenameTag(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	oldTag, newTag := strings.TrimPrefix(args[0], "#"), strings.TrimPrefix(args[1], "#")
	n, err := a.entries.RenameTagInAllEntries(ctx, oldTag, newTag)
	fmt.Fprintf(a.out, "Renamed #%s in %d entries\n", oldTag, n)
	return err
}
