// Package cli is the terminal client of the library: an interactive REPL
// driving the catalog browser, plus one-shot cobra commands.
package cli
