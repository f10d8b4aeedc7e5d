package metasyntax

import "github.com/gnolang/metasyntax/internal/compiler"

// Error is returned when a pattern cannot be compiled. Use errors.Is with
// ErrSyntax, ErrType or ErrReference to check its kind.
type Error = compiler.Error

// ErrorKind classifies an Error.
type ErrorKind = compiler.ErrorKind

const (
	KindSyntax    = compiler.KindSyntax
	KindType      = compiler.KindType
	KindReference = compiler.KindReference
)

var (
	ErrSyntax    = compiler.ErrSyntax
	ErrType      = compiler.ErrType
	ErrReference = compiler.ErrReference
)
