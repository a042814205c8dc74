package pytd

import "strings"

const (
	// PartialPrefix marks names the tracer synthesised: unknowns and call records
	PartialPrefix = "~"
	// UnknownPrefix marks placeholders for values of undetermined type
	UnknownPrefix = PartialPrefix + "unknown"
)

// IsUnknown reports whether name is a placeholder to solve for, such as ~unknown3
func IsUnknown(name string) bool {
	return strings.HasPrefix(name, UnknownPrefix)
}

// IsPartial reports whether name is a call record, such as ~list: what was
// observed about how the complete entity list was used
func IsPartial(name string) bool {
	return strings.HasPrefix(name, PartialPrefix) && !IsUnknown(name)
}

// IsComplete reports whether name is a fully known entity
func IsComplete(name string) bool {
	return !strings.HasPrefix(name, PartialPrefix)
}

// UnpackPartialName returns the name of the complete entity a call record was taken from
func UnpackPartialName(name string) string {
	return strings.TrimPrefix(name, PartialPrefix)
}

// PartialName is the inverse of UnpackPartialName
func PartialName(name string) string {
	return PartialPrefix + name
}
