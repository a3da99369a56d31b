package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/gophjournal/internal/models"
	"github.com/dmitrijs2005/gophjournal/internal/transfer"
)

// Export writes the journal, optionally limited to one tag, as JSON.
func (a *App) Export(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return errUsage
	}
	var f transfer.ExportFilter
	if len(args) == 2 {
		f.Tag = models.NormalizeTag(strings.TrimPrefix(args[1], "#"))
	}

	out, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	n, err := a.transfer.WriteExport(ctx, out, f)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(args[0])
		return err
	}
	fmt.Fprintf(a.out, "Exported %d entries to %s\n", n, args[0])
	return nil
}

// Import merges a native export, a Day One export or a markdown file.
func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	path := strings.Join(args, " ")
	res, err := a.transfer.ImportFile(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d entries from %s (skipped %d, errors %d)\n",
		res.Imported, res.Source, res.Skipped, res.Errors)
	return nil
}
