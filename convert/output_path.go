package convert

import (
	"path/filepath"

	"px2var/config"
	"px2var/state"
)

// buildOutputPath returns destination file for stylesheet. "src" is the path
// relative to the processed source root: base name when a single file was
// requested, relative path when walking directory or archive.
func buildOutputPath(src, dst string, env *state.LocalEnv) string {
	return filepath.Join(determineOutputDir(src, dst, env), config.CleanFileName(filepath.Base(src)))
}

func determineOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}
