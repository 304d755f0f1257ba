package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/elibrary/internal/flagx"
)

// Flags understood by parseFlags; everything else in args is ignored so
// cobra subcommands can share the command line.
//
//	-a string    listen address of the web front
//	-u string    base URL of the remote catalog service
//	-d string    storage DSN (SQLite path or postgres:// URL)
//	-k string    secret key for session cookies
//	-l string    log level
//	-p int       catalog page size
//	-t duration  request timeout
//	-debounce duration  search debounce
//	-trust-proxy=bool   take client addresses from proxy headers
var knownFlags = []string{"-a", "-u", "-d", "-k", "-l", "-p", "-t", "-debounce", "--debounce", "-trust-proxy", "--trust-proxy"}

func parseFlags(cfg *Config, args []string) error {
	filtered := flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("elibrary", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ListenAddr, "a", cfg.ListenAddr, "listen address of the web front")
	fs.StringVar(&cfg.APIBaseURL, "u", cfg.APIBaseURL, "base URL of the remote catalog service")
	fs.StringVar(&cfg.StorageDSN, "d", cfg.StorageDSN, "storage DSN (SQLite path or postgres:// URL)")
	fs.StringVar(&cfg.SecretKey, "k", cfg.SecretKey, "secret key for session cookies")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.IntVar(&cfg.PageSize, "p", cfg.PageSize, "catalog page size")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "remote request timeout")
	fs.DurationVar(&cfg.SearchDebounce, "debounce", cfg.SearchDebounce, "search debounce")
	fs.BoolVar(&cfg.TrustProxy, "trust-proxy", cfg.TrustProxy, "take client addresses from X-Forwarded-For/X-Real-IP")

	return fs.Parse(filtered)
}
