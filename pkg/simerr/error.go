// Package simerr implements the simulator's error taxonomy: a fixed
// set of kinds, each carrying a numeric exit code, and fatal-by-default
// handling with an opt-in "continue" mode for soft validation errors.
package simerr

import "fmt"

// Kind enumerates every error the simulator can signal, in the exact
// order (and therefore numeric code) of the original tool's error
// table, so exit codes stay meaningful to anyone cross-checking against
// it.
type Kind int

const (
	BadBlockCount Kind = iota
	BadCacheSize
	BadBlockIndex
	BadCacheID
	BadAssociativity
	AssociativityError
	ConfigError
	ConfigFileError
	WorkloadError
	StatsLevelError
)

var messages = [...]string{
	BadBlockCount:       "invalid number of blocks",
	BadCacheSize:        "invalid cache size",
	BadBlockIndex:       "invalid block index",
	BadCacheID:          "cache ID not next free number",
	BadAssociativity:    "associativity must be a power of 2 >= 1",
	AssociativityError:  "chosen victim can't be invalid",
	ConfigError:         "improperly formatted cache configuration line",
	ConfigFileError:     "unable to find or open cache configuration file",
	WorkloadError:       "unable to open workload file",
	StatsLevelError:     "invalid number of levels setting up stats",
}

// Code returns the error's exit status, matching its position in Kind.
func (k Kind) Code() int { return int(k) }

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(messages) {
		return fmt.Sprintf("error code %d out of range", int(k))
	}
	return messages[k]
}

// Error is a single simulator error: a Kind plus optional context and
// source location, the latter purely for debugging.
type Error struct {
	Kind    Kind
	Context string
	Line    int
	File    string
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Context != "" {
		s += ": " + e.Context
	}
	if e.Line != 0 {
		s += fmt.Sprintf(" at line %d", e.Line)
	}
	if e.File != "" {
		s += fmt.Sprintf(" in source file `%s'", e.File)
	}
	return s
}

// New constructs an Error with no source-location context.
func New(kind Kind, context string) *Error {
	return &Error{Kind: kind, Context: context}
}

// Newf constructs an Error with a formatted context string.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}
