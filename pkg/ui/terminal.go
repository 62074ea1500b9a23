package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// ASCII logo for the application
const ASCIILogo = `
    ╔════════════════════════════════════════════════════════╗
    ║   ___ _  _   _ _____   ___   _   ___ _  ___   _ ___    ║
    ║  / __| || | /_\_   _| | _ ) /_\ / __| |/ / | | | _ \   ║
    ║ | (__| __ |/ _ \| |   | _ \/ _ \ (__| ' <| |_| |  _/   ║
    ║  \___|_||_/_/ \_\_|   |___/_/ \_\___|_|\_\\___/|_|     ║
    ║          GRAPH CHAT ARCHIVER - PAGES, IMAGES, HTML      ║
    ╚════════════════════════════════════════════════════════╝
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stdout
	quiet   bool
	noColor bool
)

// SetOutput redirects all terminal output. A nil writer restores stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = enabled
}

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool {
	mu.Lock()
	defer mu.Unlock()
	return quiet
}

// SetNoColor disables ANSI colors
func SetNoColor(disabled bool) {
	mu.Lock()
	defer mu.Unlock()
	noColor = disabled
}

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		mu.Lock()
		plain := noColor
		mu.Unlock()
		if plain {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

func write(always bool, s string) {
	if !always && IsQuietMode() {
		return
	}
	mu.Lock()
	w := out
	mu.Unlock()
	fmt.Fprint(w, s)
}

// Println prints a plain line unless quiet mode is on
func Println(a ...interface{}) {
	write(false, fmt.Sprintln(a...))
}

// Printf prints formatted text unless quiet mode is on
func Printf(format string, a ...interface{}) {
	write(false, fmt.Sprintf(format, a...))
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	write(false, Cyan(ASCIILogo))
}

// PrintError prints an error message in red. Errors are shown in quiet mode.
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		write(true, Red(msg+": "+fmt.Sprintf("%v", args[0]))+"\n")
	} else {
		write(true, Red(msg)+"\n")
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	write(false, Green(msg)+"\n")
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	write(false, fmt.Sprintf("%s: %s\n", Cyan(label), Yellow(value)))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		write(false, Yellow(msg+": "+fmt.Sprintf("%v", args[0]))+"\n")
	} else {
		write(false, Yellow(msg)+"\n")
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	write(false, Magenta(msg)+"\n")
}

// Stat is one labeled value in a summary table
type Stat struct {
	Label string
	Value string
}

// PrintStats prints a titled block of aligned label/value rows
func PrintStats(title string, stats []Stat) {
	width := 0
	for _, s := range stats {
		if len(s.Label) > width {
			width = len(s.Label)
		}
	}

	var b strings.Builder
	b.WriteString(Magenta(title) + "\n")
	for _, s := range stats {
		pad := strings.Repeat(" ", width-len(s.Label))
		b.WriteString(fmt.Sprintf("  %s%s  %s\n", Cyan(s.Label), pad, Yellow(s.Value)))
	}
	write(false, b.String())
}
