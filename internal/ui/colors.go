package ui

import "strings"

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

func Bold(s string) string {
	return ColorBold + s + ColorReset
}

func Success(s string) string {
	return ColorGreen + s + ColorReset
}

func Info(s string) string {
	return ColorDim + ColorYellow + s + ColorReset
}

func Warning(s string) string {
	return ColorYellow + s + ColorReset
}

func Error(s string) string {
	return ColorRed + s + ColorReset
}

// Heading renders an upper-cased section title
func Heading(s string) string {
	return ColorBold + ColorCyan + strings.ToUpper(s) + ColorReset
}

// Label pads s to width and dims it, for aligned key/value lines
func Label(s string, width int) string {
	if pad := width - len(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return ColorDim + s + ColorReset
}
