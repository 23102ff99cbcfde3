package fetcher

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCyclesWithFloat is returned when cycle numbers are passed to the
// float access point, which fetches whole floats only.
var ErrCyclesWithFloat = errors.New("float does not accept cycle numbers: use the profile access point to fetch specific cycles")

// OptionError reports a facade option outside its allowed vocabulary.
type OptionError struct {
	Name  string   // option name ("mode", "source", "dataset", "plot type")
	Value string   // the rejected value
	Valid []string // allowed values
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("invalid %s %q (valid: %s)", e.Name, e.Value, strings.Join(e.Valid, ", "))
}

// AccessPointError reports a request for an access point the selected
// source does not support.
type AccessPointError struct {
	Point     AccessPoint
	Source    string
	Available []AccessPoint
}

func (e *AccessPointError) Error() string {
	return fmt.Sprintf("access point %q is not available with source %q (available: %s)",
		e.Point, e.Source, joinPoints(e.Available))
}

// NotInitializedError reports a terminal call before any access point was
// bound.
type NotInitializedError struct {
	Available []AccessPoint
}

func (e *NotInitializedError) Error() string {
	return fmt.Sprintf("no access point initialized: call one of %s first", joinPoints(e.Available))
}

func joinPoints(points []AccessPoint) string {
	names := make([]string, len(points))
	for i, p := range points {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
