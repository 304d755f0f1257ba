package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/elibrary/internal/client/models"
)

// printlnFn is a test seam for REPL chrome (prompt, help, unknown command).
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *App satisfies
// it; tests provide a recording stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	Category(ctx context.Context, arg string) error
	Search(ctx context.Context, term string) error
	Sort(ctx context.Context, key string) error
	Page(ctx context.Context, arg string) error
	Next(ctx context.Context) error
	Prev(ctx context.Context) error
	Show(ctx context.Context, arg string) error
	News(ctx context.Context, category string) error
	Login(ctx context.Context) error
	SSO(ctx context.Context, kind string) error
	Callback(ctx context.Context, code, state string) error
	Favourite(ctx context.Context, arg string) error
	Profile(ctx context.Context) error
	Logout(ctx context.Context) error
}

const (
	helpAnonymous = "Commands: category <c>, search <term>, sort <title|author|year>, page <n>, next, prev, show <id>, news [category], login, sso <student|staff>, callback <code> [state], exit"
	helpSignedIn  = "Commands: category <c>, search <term>, sort <title|author|year>, page <n>, next, prev, show <id>, news [category], fav <id>, profile, logout, exit"
)

// runREPL reads commands from reader until EOF, exit or quit. Commands
// that prompt (login) read their input from the same reader.
//
// Command handlers print their own errors, so the loop ignores what they
// return and keeps reading.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("elib%s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]
		rest := strings.Join(args, " ")

		switch cmd {
		case "help":
			if a.isLoggedIn(ctx) {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpAnonymous)
			}
			printlnFn("Categories:", categoryNames())

		case "category", "c":
			_ = a.Category(ctx, rest)

		case "search", "s":
			_ = a.Search(ctx, rest)

		case "sort":
			_ = a.Sort(ctx, rest)

		case "page":
			_ = a.Page(ctx, rest)

		case "next", "n":
			_ = a.Next(ctx)

		case "prev", "p":
			_ = a.Prev(ctx)

		case "show":
			if len(args) == 0 {
				printlnFn("Usage: show <id>")
				continue
			}
			_ = a.Show(ctx, args[0])

		case "news":
			_ = a.News(ctx, rest)

		case "login":
			_ = a.Login(ctx)

		case "sso":
			kind := "student"
			if len(args) > 0 {
				kind = args[0]
			}
			_ = a.SSO(ctx, kind)

		case "callback":
			if len(args) == 0 {
				printlnFn("Usage: callback <code> [state]")
				continue
			}
			state := ""
			if len(args) > 1 {
				state = args[1]
			}
			_ = a.Callback(ctx, args[0], state)

		case "fav":
			if len(args) == 0 {
				printlnFn("Usage: fav <id>")
				continue
			}
			_ = a.Favourite(ctx, args[0])

		case "profile":
			_ = a.Profile(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func categoryNames() string {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// RunREPL loads the whole catalog and starts the interactive loop.
func (a *App) RunREPL(ctx context.Context) {
	colPrompt.Fprintln(a.out, "e-Library terminal (type 'help' for commands)")
	_ = a.Category(ctx, string(models.CategoryAll))
	runREPL(ctx, a, func() string { return a.status(ctx) }, a.reader)
}
