package output

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// Values accepted by --color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ColorModes lists the --color values in help order.
var ColorModes = []string{ColorAuto, ColorAlways, ColorNever}

// ParseColorMode normalizes a --color value. Empty means auto.
func ParseColorMode(mode string) (string, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		return ColorAuto, nil
	}
	if !slices.Contains(ColorModes, mode) {
		return "", NewUserError(fmt.Sprintf("invalid --color %q: use %s", mode, strings.Join(ColorModes, ", ")))
	}
	return mode, nil
}

// ResolveColorMode decides whether human output is styled. always and never
// are absolute; auto styles only a terminal.
func ResolveColorMode(mode string, isTTY bool) bool {
	switch mode {
	case ColorNever:
		return false
	case ColorAlways:
		return true
	default:
		return isTTY
	}
}

// ColorEnabled resolves mode for writer. In auto mode a set NO_COLOR
// variable disables styling even on a terminal.
func ColorEnabled(mode string, writer io.Writer) bool {
	if mode != ColorAlways && mode != ColorNever {
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
	}
	return ResolveColorMode(mode, IsTTY(writer))
}

// IsTTY reports whether writer is a terminal *os.File.
func IsTTY(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}
