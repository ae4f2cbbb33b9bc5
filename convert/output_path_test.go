package convert

import (
	"path/filepath"
	"testing"

	"px2var/state"
)

func TestBuildOutputPath(t *testing.T) {
	dst := filepath.Join("out", "dir")
	tests := []struct {
		name   string
		src    string
		noDirs bool
		want   string
	}{
		{"single file", "main.css", false, filepath.Join(dst, "main.css")},
		{"keeps structure", filepath.Join("theme", "dark", "main.css"), false, filepath.Join(dst, "theme", "dark", "main.css")},
		{"no dirs", filepath.Join("theme", "dark", "main.css"), true, filepath.Join(dst, "main.css")},
		{"leading dots are removed", filepath.Join("theme", ".hidden.css"), false, filepath.Join(dst, "theme", "hidden.css")},
		{"nothing left", "..", true, filepath.Join(dst, "_bad_file_name_")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &state.LocalEnv{NoDirs: tt.noDirs}
			if got := buildOutputPath(tt.src, dst, env); got != tt.want {
				t.Errorf("buildOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
