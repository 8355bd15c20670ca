// Package version carries the build version reported by the binaries and the
// hub's health endpoint. Commit is meant to be stamped with -ldflags.
package version

import (
	"fmt"
	"strings"
)

// Commit is the git commit hash of this build, set via
// -ldflags "-X .../internal/version.Commit=...".
var Commit string

// semverAlphabet is the character set semantic versioning allows in
// pre-release identifiers.
const semverAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"

const (
	major uint = 0
	minor uint = 3
	patch uint = 0

	// preRelease must only use characters from semverAlphabet.
	preRelease = ""
)

// Version returns the semantic version of this build.
func Version() string {
	v := fmt.Sprintf("%d.%d.%d", major, minor, patch)
	if pre := normalize(preRelease); pre != "" {
		v = fmt.Sprintf("%s-%s", v, pre)
	}
	return v
}

// Full returns the semantic version plus the commit hash when one was
// stamped into the build.
func Full() string {
	v := Version()
	if hash := strings.TrimSpace(Commit); hash != "" {
		return fmt.Sprintf("%s commit=%s", v, hash)
	}
	return v
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(semverAlphabet, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
