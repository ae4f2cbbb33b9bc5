//go:build windows

package config

import (
	"os"
	"strings"

	"golang.org/x/sys/windows"
	"golang.org/x/term"
)

// CleanFileName drops characters Windows does not allow in file names.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if sym < 0x20 || strings.ContainsRune(`<>":/\|?*`, sym) || sym == os.PathListSeparator {
			return -1
		}
		return sym
	}, in)
	out = strings.TrimRight(out, ". ")
	if len(out) == 0 {
		out = "_bad_file_name_"
	}
	return out
}

// EnableColorOutput reports whether stream is a console able to process VT100
// sequences (Windows 10 and later) and turns processing on.
func EnableColorOutput(stream *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if windows.RtlGetVersion().MajorVersion < 10 {
		return false
	}
	if !term.IsTerminal(int(stream.Fd())) {
		return false
	}

	h := windows.Handle(stream.Fd())
	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return false
	}
	return windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING) == nil
}
