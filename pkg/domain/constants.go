package domain

import "time"

// Reserved StreamEvent section names for the shell markup.
const (
	ShellPrefixName = "shell.prefix"
	ShellSuffixName = "shell.suffix"
)

// DefaultSectionTimeout applies to sections that do not declare a timeout.
const DefaultSectionTimeout = 500 * time.Millisecond

// IsReservedName reports whether name collides with the shell event names.
func IsReservedName(name string) bool {
	return name == ShellPrefixName || name == ShellSuffixName
}
