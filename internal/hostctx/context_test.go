package hostctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtLeast(t *testing.T) {
	cases := []struct {
		version, min string
		want         bool
	}{
		{"5.2", "5.3", false},
		{"5.4", "5.3", true},
		{"5.3", "5.3", true},
		{"5.3.1", "5.3", true},
		{"6", "5.3", true},
		{"", "5.3", false},
		{"beta", "5.3", false},
		{"5.4", "", false},
		{"5.4", "x", false},
		{" 5.4", "5.3", true},
	}
	for _, tc := range cases {
		got := New(PlatformAndroid, tc.version).AtLeast(tc.min)
		assert.Equal(t, tc.want, got, "version=%q min=%q", tc.version, tc.min)
	}
}

func TestDefaultIsIOSWithoutVersion(t *testing.T) {
	c := Default()
	assert.True(t, c.IsIOS())
	assert.False(t, c.IsAndroid())
	assert.Empty(t, c.Version())
	assert.False(t, c.AtLeast("5.2"))
}

func TestPlatformsAreExclusive(t *testing.T) {
	for _, p := range []Platform{PlatformUnknown, PlatformIOS, PlatformAndroid, Platform(7)} {
		c := New(p, "5.5")
		assert.False(t, c.IsIOS() && c.IsAndroid(), p.String())
	}
}

func TestParsePlatform(t *testing.T) {
	p, err := ParsePlatform("android")
	require.NoError(t, err)
	assert.Equal(t, PlatformAndroid, p)

	p, err = ParsePlatform("1")
	require.NoError(t, err)
	assert.Equal(t, PlatformIOS, p)

	_, err = ParsePlatform("symbian")
	assert.Error(t, err)
}
