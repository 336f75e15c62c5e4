package remote

import "strings"

// Family identifies the target shell/path conventions.
type Family string

const (
	FamilyUnix    Family = "unix"
	FamilyWindows Family = "windows"
)

// ParseFamily maps a configured os type onto a target family.
// Anything other than a case-insensitive "windows" is treated as unix.
func ParseFamily(osType string) Family {
	if strings.EqualFold(strings.TrimSpace(osType), string(FamilyWindows)) {
		return FamilyWindows
	}
	return FamilyUnix
}

func (f Family) IsWindows() bool {
	return f == FamilyWindows
}

// Separator returns the remote path separator for the family.
func (f Family) Separator() string {
	if f.IsWindows() {
		return `\`
	}
	return "/"
}

// PathJoin joins remote path parts with the family separator.
// Parts are joined verbatim so unexpanded variables such as $env:TEMP survive.
func PathJoin(f Family, parts ...string) string {
	return strings.Join(parts, f.Separator())
}
