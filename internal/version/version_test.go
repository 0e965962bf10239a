package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	require.Equal(t, "0.3.0-beta", Version())
	require.Equal(t, "beta.1", keepOnly("beta!.1 ", preReleaseAlphabet))
}

func TestFullIncludesCommit(t *testing.T) {
	prev := Commit
	t.Cleanup(func() { Commit = prev })

	Commit = ""
	require.Equal(t, Version(), Full())

	Commit = " abc123 \n"
	require.Equal(t, Version()+" commit=abc123", Full())
}
