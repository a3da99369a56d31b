package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. *App implements it;
// tests substitute a recorder.
type execIface interface {
	NewEntry(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	More(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Star(ctx context.Context, args []string) error
	Starred(ctx context.Context, args []string) error
	OnThisDay(ctx context.Context, args []string) error
	Attach(ctx context.Context, args []string) error
	Tags(ctx context.Context, args []string) error
	RemoveTag(ctx context.Context, args []string) error
	RenameTag(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	Stats(ctx context.Context, args []string) error
	Patterns(ctx context.Context, args []string) error
	Digest(ctx context.Context, args []string) error
	Prompt(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Encrypt(ctx context.Context, args []string) error
	DisableEncryption(ctx context.Context, args []string) error
	Lock(ctx context.Context, args []string) error
	Unlock(ctx context.Context, args []string) error
}

var usage = map[string]string{
	"show":      "show <id>",
	"edit":      "edit <id>",
	"delete":    "delete <id>",
	"rm":        "delete <id>",
	"s":         "search <words...>",
	"star":      "star <id>",
	"attach":    "attach <id> <file>",
	"rmtag":     "rmtag <tag>",
	"renametag": "renametag <old> <new>",
	"search":    "search <words...>",
	"export":    "export <file> [tag]",
	"import":    "import <file>",
}

const helpText = `Commands:
  new [tags...]          write an entry
  prompt                 today's writing prompt
  list [tag] / more      newest entries, then the next page
  show|edit|delete <id>  one entry
  star <id> / starred    toggle and list favourites
  onthisday              entries from this day in earlier years
  attach <id> <file>     add a photo, audio or video file
  tags / rmtag / renametag
  search <words...>      fuzzy full-text search
  stats / patterns / digest
  export <file> [tag] / import <file>
  encrypt / disable-encryption / lock / unlock
  exit`

// runREPL reads commands from scanner and dispatches them to a until EOF
// or exit. Handler errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("journal%s> ", prefixSpace(statusFn())))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help", "?":
			printlnFn(helpText)
		case "new", "n":
			err = a.NewEntry(ctx, args)
		case "list", "l":
			err = a.List(ctx, args)
		case "more", "m":
			err = a.More(ctx, args)
		case "show":
			err = a.Show(ctx, args)
		case "edit":
			err = a.Edit(ctx, args)
		case "delete", "rm":
			err = a.Delete(ctx, args)
		case "star":
			err = a.Star(ctx, args)
		case "starred":
			err = a.Starred(ctx, args)
		case "onthisday":
			err = a.OnThisDay(ctx, args)
		case "attach":
			err = a.Attach(ctx, args)
		case "tags":
			err = a.Tags(ctx, args)
		case "rmtag":
			err = a.RemoveTag(ctx, args)
		case "renametag":
			err = a.RenameTag(ctx, args)
		case "search", "s":
			err = a.Search(ctx, args)
		case "stats":
			err = a.Stats(ctx, args)
		case "patterns":
			err = a.Patterns(ctx, args)
		case "digest":
			err = a.Digest(ctx, args)
		case "prompt":
			err = a.Prompt(ctx, args)
		case "export":
			err = a.Export(ctx, args)
		case "import":
			err = a.Import(ctx, args)
		case "encrypt":
			err = a.Encrypt(ctx, args)
		case "disable-encryption":
			err = a.DisableEncryption(ctx, args)
		case "lock":
			err = a.Lock(ctx, args)
		case "unlock":
			err = a.Unlock(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		switch {
		case err == nil:
		case errors.Is(err, errUsage):
			printlnFn("Usage:", usage[cmd])
		default:
			printlnFn("Error:", err)
		}
	}
}

func prefixSpace(s string) string {
	if s == "" {
		return ""
	}
	return " " + s
}
