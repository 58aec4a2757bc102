// Package hostctx holds what the page knows about the native host it runs in.
package hostctx

import (
	"fmt"
	"strconv"
)

type Platform int

const (
	PlatformUnknown Platform = 0
	PlatformIOS     Platform = 1
	PlatformAndroid Platform = 2
)

func (p Platform) String() string {
	switch p {
	case PlatformIOS:
		return "ios"
	case PlatformAndroid:
		return "android"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// ParsePlatform accepts the names used in configuration files.
func ParsePlatform(s string) (Platform, error) {
	switch s {
	case "ios", "iOS", "1":
		return PlatformIOS, nil
	case "android", "Android", "2":
		return PlatformAndroid, nil
	}
	return PlatformUnknown, fmt.Errorf("unknown platform %q", s)
}

// Context is immutable; replace it as a whole when the host reports new values.
type Context struct {
	platform Platform
	version  string
}

func New(platform Platform, version string) Context {
	return Context{platform: platform, version: version}
}

// Default is the bootstrap value used until the host first reports itself.
func Default() Context {
	return Context{platform: PlatformIOS}
}

func (c Context) Platform() Platform { return c.platform }
func (c Context) Version() string    { return c.version }
func (c Context) IsIOS() bool        { return c.platform == PlatformIOS }
func (c Context) IsAndroid() bool    { return c.platform == PlatformAndroid }

// AtLeast reports whether the host version is numerically >= min. Unset or
// non-numeric versions never satisfy it.
func (c Context) AtLeast(min string) bool {
	want, ok := leadingFloat(min)
	if !ok {
		return false
	}
	have, ok := leadingFloat(c.version)
	if !ok {
		return false
	}
	return have-want >= 0
}

// leadingFloat parses the longest numeric prefix of s, so "5.3.1" is 5.3.
func leadingFloat(s string) (float64, bool) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s[start:i], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
