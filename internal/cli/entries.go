package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/models"
	"github.com/dmitrijs2005/gophjournal/internal/services"
)

// NewEntry reads a multi-line text; tags come from args or a follow-up
// prompt.
func (a *App) NewEntry(ctx context.Context, args []string) error {
	return a.writeEntry(ctx, "", args)
}

func (a *App) writeEntry(ctx context.Context, promptID string, args []string) error {
	text, err := GetMultiline(a.reader, "Write your entry:", a.out)
	if err != nil {
		return err
	}
	if text == "" {
		fmt.Fprintln(a.out, "Nothing written, entry discarded.")
		return nil
	}

	tags := parseTags(strings.Join(args, ","))
	if len(args) == 0 {
		line, err := GetSimpleText(a.reader, "Tags (comma separated, empty for none)", a.out)
		if err != nil {
			return err
		}
		tags = parseTags(line)
	}

	id, err := a.entries.AddEntry(ctx, &models.Entry{Text: text, Tags: tags, PromptID: promptID})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved entry #%d\n", id)
	a.analyze(ctx, id)
	return nil
}

// analyze annotates id in the background; failures only reach the log.
func (a *App) analyze(ctx context.Context, id int64) {
	if !a.insights.Enabled() {
		return
	}
	go func() {
		for range a.insights.AnalyzeAsync(context.WithoutCancel(ctx), id) {
		}
	}()
}

func (a *App) List(ctx context.Context, args []string) error {
	a.cursor = time.Time{}
	a.listTag = ""
	a.listed = true
	if len(args) > 0 {
		a.listTag = models.NormalizeTag(strings.TrimPrefix(args[0], "#"))
	}
	return a.page(ctx)
}

func (a *App) More(ctx context.Context, _ []string) error {
	if !a.listed {
		return a.List(ctx, nil)
	}
	return a.page(ctx)
}

func (a *App) page(ctx context.Context) error {
	es, err := a.entries.GetEntries(ctx, models.EntryQuery{
		Limit:  a.config.PageSize,
		Before: a.cursor,
		Tag:    a.listTag,
	})
	if err != nil {
		return err
	}
	if len(es) == 0 {
		fmt.Fprintln(a.out, "No more entries.")
		return nil
	}
	printSummaries(a.out, es, "")
	a.cursor = es[len(es)-1].CreatedAt
	if len(es) == a.config.PageSize {
		fmt.Fprintln(a.out, "(type 'more' for older entries)")
	}
	return nil
}

func (a *App) mediaURL(ctx context.Context) func(string) string {
	return func(path string) string {
		h, err := a.media.OpenMedia(ctx, path)
		if err != nil {
			a.log.Debug(ctx, "media unavailable", "path", path, "error", err)
			return "(unavailable)"
		}
		defer h.Release()
		return h.URL
	}
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := argID(args)
	if err != nil {
		return err
	}
	e, err := a.entries.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	printEntry(a.out, *e, a.mediaURL(ctx))
	return nil
}

// Edit replaces text and/or tags. Empty answers keep the current value; a
// single "-" clears the tags.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := argID(args)
	if err != nil {
		return err
	}
	e, err := a.entries.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, displayText(e.Text))

	var patch services.EntryPatch

	text, err := GetMultiline(a.reader, "New text (empty keeps the current text):", a.out)
	if err != nil {
		return err
	}
	if text != "" && text != e.Text {
		patch.Text = &text
	}

	line, err := GetSimpleText(a.reader, fmt.Sprintf("Tags [%s] (empty keeps, '-' clears)", strings.Join(e.Tags, ", ")), a.out)
	if err != nil {
		return err
	}
	switch line {
	case "":
	case "-":
		patch.Tags = &[]string{}
	default:
		tags := parseTags(line)
		patch.Tags = &tags
	}

	if patch.Text == nil && patch.Tags == nil {
		fmt.Fprintln(a.out, "Nothing changed.")
		return nil
	}
	if _, err := a.entries.UpdateEntry(ctx, id, patch); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated entry #%d\n", id)
	if patch.Text != nil {
		a.analyze(ctx, id)
	}
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := argID(args)
	if err != nil {
		return err
	}
	e, err := a.entries.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	printSummary(a.out, *e)
	if !Confirm(a.reader, "Delete this entry?", a.out) {
		return nil
	}
	if err := a.entries.DeleteEntry(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted entry #%d\n", id)
	return nil
}

func (a *App) Star(ctx context.Context, args []string) error {
	id, err := argID(args)
	if err != nil {
		return err
	}
	e, err := a.entries.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	starred, err := a.entries.ToggleStarEntry(ctx, id, e.Starred)
	if err != nil {
		return err
	}
	if starred {
		fmt.Fprintf(a.out, "Starred entry #%d\n", id)
	} else {
		fmt.Fprintf(a.out, "Unstarred entry #%d\n", id)
	}
	return nil
}

func (a *App) Starred(ctx context.Context, _ []string) error {
	es, err := a.entries.GetStarredEntries(ctx)
	if err != nil {
		return err
	}
	printSummaries(a.out, es, "No starred entries.")
	return nil
}

func (a *App) OnThisDay(ctx context.Context, _ []string) error {
	es, err := a.entries.GetOnThisDayEntries(ctx)
	if err != nil {
		return err
	}
	printSummaries(a.out, es, "Nothing written on this day in earlier years.")
	return nil
}

// Attach adds a local file as the entry's audio, video or an extra image,
// classified by extension.
func (a *App) Attach(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	id, err := argID(args)
	if err != nil {
		return err
	}
	path := strings.Join(args[1:], " ")

	mime := models.MimeTypeFor(filepath.Ext(path))
	if models.KindOf(mime) == models.MediaUnknown {
		return fmt.Errorf("unsupported media type for %s", filepath.Base(path))
	}
	if strings.HasPrefix(mime, "audio/") && strings.EqualFold(filepath.Ext(path), ".webm") {
		if Confirm(a.reader, "Is this a video recording?", a.out) {
			mime = "video/webm"
		}
	}
	if !a.media.IsSupported() {
		fmt.Fprintln(a.out, "Warning: media storage is unavailable, this attachment lasts only until exit")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	e, err := a.entries.AttachMedia(ctx, id, services.Attachment{Reader: f, MimeType: mime})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Attached %s to entry #%d (%d media)\n", filepath.Base(path), e.ID, len(e.MediaPaths()))
	return nil
}
