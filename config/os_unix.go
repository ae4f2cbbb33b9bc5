//go:build !windows

package config

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// CleanFileName drops path separators and leading dots, so the name could
// not escape destination directory or become hidden.
func CleanFileName(in string) string {
	out := strings.TrimLeft(strings.Map(func(sym rune) rune {
		if sym == os.PathSeparator || sym == os.PathListSeparator {
			return -1
		}
		return sym
	}, in), ".")
	if len(out) == 0 {
		out = "_bad_file_name_"
	}
	return out
}

// EnableColorOutput reports whether stream is a terminal and NO_COLOR is not
// set.
func EnableColorOutput(stream *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return term.IsTerminal(int(stream.Fd()))
}
