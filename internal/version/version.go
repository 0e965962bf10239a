// Package version reports the kindred client version. Commit is stamped at
// build time with -ldflags "-X .../internal/version.Commit=<sha>".
package version

import (
	"fmt"
	"strings"
)

// Commit is the git commit the binary was built from, if stamped.
var Commit string

// preReleaseAlphabet is the character set SemVer allows in pre-release tags.
const preReleaseAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-."

const (
	major uint = 0
	minor uint = 3
	patch uint = 0

	preRelease = "beta"
)

// Version returns the SemVer version string.
func Version() string {
	v := fmt.Sprintf("%d.%d.%d", major, minor, patch)
	if tag := keepOnly(preRelease, preReleaseAlphabet); tag != "" {
		v += "-" + tag
	}
	return v
}

// Full returns Version followed by the commit, when known.
func Full() string {
	commit := strings.TrimSpace(Commit)
	if commit == "" {
		return Version()
	}
	return fmt.Sprintf("%s commit=%s", Version(), commit)
}

func keepOnly(s, alphabet string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(alphabet, r) {
			return r
		}
		return -1
	}, s)
}
