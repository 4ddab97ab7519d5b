package bindings

import (
	"errors"
	"fmt"
)

// ErrMalformed is wrapped by every load-time error that means the document
// itself does not have the expected shape (as opposed to a well-shaped
// document with conflicting or dangling declarations).
var ErrMalformed = errors.New("malformed IDL document")

// DuplicateNameError reports two declarations sharing a name within the
// same category. Loading is all-or-nothing, so no table is produced.
type DuplicateNameError struct {
	Category Category
	Name     string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate %s name %q", e.Category, e.Name)
}

// UnresolvedReferenceError reports a composite field naming a type that is
// not declared in the same document.
type UnresolvedReferenceError struct {
	Owner string // the declaration owning the field
	Field string
	Ref   string // the missing type name
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("field %q of %q references undeclared type %q", e.Field, e.Owner, e.Ref)
}
