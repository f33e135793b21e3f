// Package ui provides terminal output helpers for the CLI.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

// PrintHeader prints a boxed section header.
func PrintHeader(title string) {
	pterm.DefaultBox.Println(title)
	fmt.Println()
}

// PrintSuccess prints a success message.
func PrintSuccess(format string, args ...any) {
	successColor.Println("✓ " + fmt.Sprintf(format, args...))
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	errorColor.Fprintln(os.Stderr, "✗ "+fmt.Sprintf(format, args...))
}

// PrintWarning prints a warning message.
func PrintWarning(format string, args ...any) {
	warnColor.Println("⚠ " + fmt.Sprintf(format, args...))
}

// PrintInfo prints an informational message.
func PrintInfo(format string, args ...any) {
	infoColor.Println("→ " + fmt.Sprintf(format, args...))
}
