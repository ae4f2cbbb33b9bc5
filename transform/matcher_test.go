package transform

import "testing"

func TestParseEntry(t *testing.T) {
	tests := []struct {
		entry   string
		kind    matchKind
		str     string
		match   []string
		noMatch []string
	}{
		{".btn", matchSubstring, ".btn", []string{".btn", "a .btn-primary"}, []string{".BTN", "btn"}},
		{"/^\\.btn$/", matchPattern, "/^\\.btn$/", []string{".btn"}, []string{".btn-primary", "a .btn"}},
		{"/^BORDER/i", matchPattern, "/^BORDER/i", []string{"border-width", "Border"}, []string{"min-border"}},
		{"/^b/gm", matchPattern, "/^b/gm", []string{"a\nb"}, []string{"a b"}},
		{"/path/to", matchSubstring, "/path/to", []string{"/path/to/file.css"}, []string{"/path"}},
		{"/", matchSubstring, "/", []string{"a/b"}, []string{"ab"}},
		{"/^(?!\\.keep)/", matchPattern, "/^(?!\\.keep)/", []string{".a", "a .keep"}, []string{".keep .a"}},
		{"", matchSubstring, "", []string{"", "anything"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			m, err := ParseEntry(tt.entry)
			if err != nil {
				t.Fatalf("ParseEntry() error = %v", err)
			}
			if m.kind != tt.kind {
				t.Errorf("kind = %d, want %d", m.kind, tt.kind)
			}
			if m.String() != tt.str {
				t.Errorf("String() = %q, want %q", m.String(), tt.str)
			}
			for _, s := range tt.match {
				if !m.Match(s) {
					t.Errorf("Match(%q) = false, want true", s)
				}
			}
			for _, s := range tt.noMatch {
				if m.Match(s) {
					t.Errorf("Match(%q) = true, want false", s)
				}
			}
		})
	}
}

func TestParseEntry_Errors(t *testing.T) {
	for _, entry := range []string{"/(/", "/a/s", "/a/u", "/[/i"} {
		if _, err := ParseEntry(entry); err == nil {
			t.Errorf("ParseEntry(%q) expected error", entry)
		}
	}
}

func TestParsePattern(t *testing.T) {
	tests := []struct {
		include string
		match   []string
		noMatch []string
	}{
		{`\.css$`, []string{"/a/b.css"}, []string{"/a/b.css.map", "/a/b.CSS"}},
		{"/\\.CSS$/i", []string{"/a/b.css", "/a/b.CSS"}, []string{"/a/b.scss.map"}},
		{"node_modules/vant", []string{"/p/node_modules/vant/lib/index.css"}, []string{"/p/src/vant.css"}},
		{"theme.zip", []string{"/p/theme.zip/main.css", "/p/themeXzip/main.css"}, []string{"/p/theme.css"}},
	}
	for _, tt := range tests {
		t.Run(tt.include, func(t *testing.T) {
			m, err := ParsePattern(tt.include)
			if err != nil {
				t.Fatalf("ParsePattern() error = %v", err)
			}
			if m.kind != matchPattern {
				t.Errorf("kind = %d, include is always a pattern", m.kind)
			}
			for _, s := range tt.match {
				if !m.Match(s) {
					t.Errorf("Match(%q) = false, want true", s)
				}
			}
			for _, s := range tt.noMatch {
				if m.Match(s) {
					t.Errorf("Match(%q) = true, want false", s)
				}
			}
		})
	}

	if _, err := ParsePattern("(unbalanced"); err == nil {
		t.Error("ParsePattern() expected error for bad expression")
	}
}

func TestPattern_Flags(t *testing.T) {
	if _, err := Pattern("a", "gim"); err != nil {
		t.Errorf("Pattern() with known flags error = %v", err)
	}
	for _, flags := range []string{"s", "u", "y", "d", "x"} {
		if _, err := Pattern("a", flags); err == nil {
			t.Errorf("Pattern() with flags %q expected error", flags)
		}
	}
}

func TestMatcher_Zero(t *testing.T) {
	var m Matcher
	if !m.IsZero() {
		t.Error("IsZero() = false for zero value")
	}
	if m.Match("") || m.Match("anything") {
		t.Error("zero matcher should not match")
	}
	if Substring("").IsZero() {
		t.Error("IsZero() = true for empty substring")
	}
}

func TestSplitLiteral(t *testing.T) {
	tests := []struct {
		in          string
		expr, flags string
		ok          bool
	}{
		{"/a/", "a", "", true},
		{"/a/gi", "a", "gi", true},
		{"/a/b/", "a/b", "", true},
		{"/a/b", "", "", false},
		{"a/b/", "", "", false},
		{"/", "", "", false},
		{"//", "", "", true},
	}
	for _, tt := range tests {
		expr, flags, ok := splitLiteral(tt.in)
		if expr != tt.expr || flags != tt.flags || ok != tt.ok {
			t.Errorf("splitLiteral(%q) = %q, %q, %v, want %q, %q, %v", tt.in, expr, flags, ok, tt.expr, tt.flags, tt.ok)
		}
	}
}

func TestMatchAny(t *testing.T) {
	list := []Matcher{Substring(".a"), Substring(".b")}
	if !matchAny(list, "x .b") {
		t.Error("matchAny() = false, want true")
	}
	if matchAny(list, ".c") {
		t.Error("matchAny() = true, want false")
	}
	if matchAny(nil, ".a") {
		t.Error("matchAny() on empty list = true")
	}
}
