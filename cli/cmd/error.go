package cmd

import "github.com/ardnew/aexpr/lang"

// Command errors. They are [*lang.Error] values, so attributes attached with
// With are logged alongside the message.
var (
	ErrNoExpression = lang.NewError("no expression (pass EXPR, --source, or pipe stdin)")
	ErrReadVars     = lang.NewError("read variables")
	ErrBindVar      = lang.NewError("invalid variable binding")
	ErrWriteOutput  = lang.NewError("write output")
	ErrWriteConfig  = lang.NewError("write configuration file")
	ErrFileExists   = lang.NewError("file exists (use --force to overwrite)")
)
