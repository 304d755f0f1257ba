package cli

import "github.com/fatih/color"

var (
	colTitle   = color.New(color.FgCyan, color.Bold)
	colAuthor  = color.New(color.FgMagenta)
	colPrompt  = color.New(color.FgGreen, color.Bold)
	colError   = color.New(color.FgRed, color.Bold)
	colSuccess = color.New(color.FgGreen)
	colInfo    = color.New(color.FgBlue)
	colWarning = color.New(color.FgYellow)
)
