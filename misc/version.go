// Package misc holds build time information.
package misc

// Set with -ldflags "-X px2var/misc.version=... -X px2var/misc.gitHash=...".
var (
	version = "dev"
	gitHash = "unknown"
)

const appName = "px2var"

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
