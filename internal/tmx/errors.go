package tmx

import "fmt"

// ErrorKind classifies terminal load failures.
type ErrorKind int

const (
	// KindAccess means the file could not be opened or read.
	KindAccess ErrorKind = iota
	// KindMalformed means the document was not well-formed XML, requested
	// DTD processing, or had no header element.
	KindMalformed
	// KindCancelled means the load was aborted through its context before
	// the unit extraction could commit.
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindMalformed:
		return "malformed"
	case KindCancelled:
		return "cancelled"
	}
	return "unknown"
}

// LoadError is the sticky error recorded by Parser.Load. Field-level parse
// problems (dates, confirmation levels) never become a LoadError; they
// degrade the affected field instead.
type LoadError struct {
	// File is the path the parser is bound to.
	File string
	// Kind is the failure category.
	Kind ErrorKind
	// Err is the underlying cause.
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.File, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
