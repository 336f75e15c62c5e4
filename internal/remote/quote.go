package remote

import "strings"

// ShellEscape single-quotes a value for a POSIX shell.
func ShellEscape(value string) string {
	if value == "" {
		return "''"
	}

	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}

// Quote returns value unchanged when it is safe as a bare shell word on the
// family's shell, otherwise a POSIX-quoted copy. Windows values pass through
// so PowerShell variables keep expanding.
func Quote(f Family, value string) string {
	if f.IsWindows() {
		return value
	}
	if value != "" && isBareWord(value) {
		return value
	}
	return ShellEscape(value)
}

// JoinCommand renders name and args as one command line, each word quoted
// for the family's shell.
func JoinCommand(f Family, name string, args ...string) string {
	words := make([]string, 0, len(args)+1)
	words = append(words, Quote(f, name))
	for _, arg := range args {
		words = append(words, Quote(f, arg))
	}
	return strings.Join(words, " ")
}

func isBareWord(value string) bool {
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case strings.IndexByte("_@%+=:,./-", c) >= 0:
		default:
			return false
		}
	}
	return true
}
