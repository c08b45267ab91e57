// Package version implements the version-check updater (§4.F): a single
// cooperative task that polls the version endpoint, tracks whether an
// upgrade should be suggested, and persists the result to a small JSON
// cache next to the daemon's other runtime state.
package version

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	stableRegexp = regexp.MustCompile(`^(\d{4})\.(\d+)$`)
	betaRegexp   = regexp.MustCompile(`^(\d{4})\.(\d+)-beta(\d+)$`)
)

// AppVersion is the tagged variant described in §4.F: a release is either
// Stable(year, serial) or Beta(year, serial, beta). The zero value is not
// a valid version; always obtain one through ParseAppVersion.
type AppVersion struct {
	year, serial int
	beta         int
	isBeta       bool
}

// Stable builds a Stable(year, serial) version.
func Stable(year, serial int) AppVersion {
	return AppVersion{year: year, serial: serial}
}

// Beta builds a Beta(year, serial, beta) version.
func Beta(year, serial, beta int) AppVersion {
	return AppVersion{year: year, serial: serial, beta: beta, isBeta: true}
}

// ParseAppVersion parses a product version string. It recognizes exactly
// two shapes, `YYYY.N` and `YYYY.N-betaM`; anything else, including a dev
// build suffix like `-dev-f16be4`, reports ok == false.
func ParseAppVersion(s string) (v AppVersion, ok bool) {
	if m := stableRegexp.FindStringSubmatch(s); m != nil {
		year, err1 := strconv.Atoi(m[1])
		serial, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			return AppVersion{}, false
		}
		return Stable(year, serial), true
	}
	if m := betaRegexp.FindStringSubmatch(s); m != nil {
		year, err1 := strconv.Atoi(m[1])
		serial, err2 := strconv.Atoi(m[2])
		beta, err3 := strconv.Atoi(m[3])
		if err1 != nil || err2 != nil || err3 != nil {
			return AppVersion{}, false
		}
		return Beta(year, serial, beta), true
	}
	return AppVersion{}, false
}

// String renders the version in its canonical textual form, the inverse
// of ParseAppVersion.
func (v AppVersion) String() string {
	if v.isBeta {
		return fmt.Sprintf("%d.%d-beta%d", v.year, v.serial, v.beta)
	}
	return fmt.Sprintf("%d.%d", v.year, v.serial)
}

// IsBeta reports whether v is a beta release.
func (v AppVersion) IsBeta() bool { return v.isBeta }

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater
// than other, per the total order in §4.F: ordered lexicographically by
// (year, serial); within equal (year, serial) a Stable outranks any Beta;
// between two betas of equal (year, serial), the higher beta wins.
func (v AppVersion) Compare(other AppVersion) int {
	if v.year != other.year {
		return cmpInt(v.year, other.year)
	}
	if v.serial != other.serial {
		return cmpInt(v.serial, other.serial)
	}
	switch {
	case !v.isBeta && !other.isBeta:
		return 0
	case !v.isBeta && other.isBeta:
		return 1
	case v.isBeta && !other.isBeta:
		return -1
	default:
		return cmpInt(v.beta, other.beta)
	}
}

// Less reports whether v orders strictly before other.
func (v AppVersion) Less(other AppVersion) bool { return v.Compare(other) < 0 }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// maxVersion returns the greater of a set of candidate versions. Panics
// if candidates is empty; callers always pass at least one.
func maxVersion(candidates []AppVersion) AppVersion {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if best.Less(c) {
			best = c
		}
	}
	return best
}
