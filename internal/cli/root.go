package cli

import (
	"context"
	"io"

	"github.com/dmitrijs2005/elibrary/internal/buildinfo"
	"github.com/dmitrijs2005/elibrary/internal/catalog"
	"github.com/spf13/cobra"
)

// AppFactory builds an App writing to out. Commands close the App they get.
type AppFactory func(out io.Writer) (*App, error)

// NewRootCommand wires the REPL (no subcommand) and the one-shot commands.
// Config flags (-c, -u, -d, ...) are parsed elsewhere, so unknown flags are
// tolerated here.
func NewRootCommand(ctx context.Context, newApp AppFactory) *cobra.Command {
	withApp := func(run func(a *App, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()
			return run(a, cmd, args)
		}
	}

	root := &cobra.Command{
		Use:           "elib",
		Short:         "Terminal client of the university e-library",
		SilenceUsage:  true,
		SilenceErrors: true,
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
		RunE: withApp(func(a *App, cmd *cobra.Command, args []string) error {
			a.RunREPL(ctx)
			return nil
		}),
	}

	var (
		category, search, sortKey string
		page                      int
	)
	booksCmd := &cobra.Command{
		Use:   "books",
		Short: "List catalog books",
		Args:  cobra.NoArgs,
		RunE: withApp(func(a *App, cmd *cobra.Command, args []string) error {
			return a.ListBooks(ctx, category, search, sortKey, page)
		}),
	}
	booksCmd.Flags().StringVarP(&category, "category", "g", "", "category (Adabiyotlar, Darslik, Ilmiy; empty for all)")
	booksCmd.Flags().StringVarP(&search, "search", "s", "", "title or author substring")
	booksCmd.Flags().StringVar(&sortKey, "sort", string(catalog.SortTitle), "sort key: title, author or year")
	booksCmd.Flags().IntVar(&page, "page", 1, "page number")

	bookCmd := &cobra.Command{
		Use:   "book <id>",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(a *App, cmd *cobra.Command, args []string) error {
			return a.Show(ctx, args[0])
		}),
	}

	var newsCategory string
	newsCmd := &cobra.Command{
		Use:   "news",
		Short: "List news",
		Args:  cobra.NoArgs,
		RunE: withApp(func(a *App, cmd *cobra.Command, args []string) error {
			return a.News(ctx, newsCategory)
		}),
	}
	newsCmd.Flags().StringVarP(&newsCategory, "category", "g", "", "news category")

	var username string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with username and password",
		Args:  cobra.NoArgs,
		RunE: withApp(func(a *App, cmd *cobra.Command, args []string) error {
			if username == "" {
				return a.Login(ctx)
			}
			pw, err := GetPassword(a.reader, a.out)
			if err != nil {
				return err
			}
			return a.LoginWith(ctx, username, string(pw))
		}),
	}
	loginCmd.Flags().StringVar(&username, "username", "", "username (prompted when empty)")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: withApp(func(a *App, cmd *cobra.Command, args []string) error {
			return a.Logout(ctx)
		}),
	}

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in profile",
		Args:  cobra.NoArgs,
		RunE: withApp(func(a *App, cmd *cobra.Command, args []string) error {
			return a.Profile(ctx)
		}),
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}

	root.AddCommand(booksCmd, bookCmd, newsCmd, loginCmd, logoutCmd, profileCmd, versionCmd)
	return root
}

// ListBooks prints one catalog page without the interactive debounce.
func (a *App) ListBooks(ctx context.Context, category, search, sortKey string, page int) error {
	err := a.browser.SetCategory(ctx, parseCategory(category))
	if err != nil {
		a.printErr(err, "Could not load the catalog")
	}
	a.browser.SetSearch(search)
	a.browser.Flush()
	a.browser.SetSort(catalog.ParseSort(sortKey))
	a.browser.SetPage(page)
	a.printView(a.browser.View())
	return err
}
