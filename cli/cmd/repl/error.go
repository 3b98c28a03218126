package repl

import "github.com/ardnew/aexpr/lang"

// Sentinel errors.
var (
	ErrOutOfBounds   = lang.NewError("history index out of range")
	ErrEditDeclined  = lang.NewError("edit declined")
	ErrNoVariables   = lang.NewError("no variables to edit")
	ErrNoInterpreter = lang.NewError("no interpreter")
)
