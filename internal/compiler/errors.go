package compiler

import (
	"strings"
)

// ErrorKind classifies compilation failures.
type ErrorKind string

const (
	KindSyntax    ErrorKind = "SyntaxError"    // malformed brackets, quotes or array markers
	KindType      ErrorKind = "TypeError"      // unknown type, empty pattern, `$` without a value
	KindReference ErrorKind = "ReferenceError" // alias inside an alias, internal inconsistency
)

// Error is returned by Compile. All compilation errors are final for the
// pattern that produced them.
type Error struct {
	Kind    ErrorKind
	Message string
	// Token is the offending token or union member as written, if any.
	Token string
	// Offset is the byte offset of Token in the pattern, or -1.
	Offset int
	// Pointer is a caret line aligned under the "In token" line.
	Pointer string
	// Bug marks failures that user input can never trigger.
	Bug bool
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrSyntax    = &Error{Kind: KindSyntax}
	ErrType      = &Error{Kind: KindType}
	ErrReference = &Error{Kind: KindReference}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Token != "" || e.Pointer != "" {
		b.WriteString("\n")
		b.WriteString(e.inToken())
	}
	if e.Pointer != "" {
		b.WriteString("\n")
		b.WriteString(e.Pointer)
	}
	return b.String()
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) inToken() string {
	return "In token '" + e.Token + "'"
}

const tokenPrefix = len("In token '")

func syntaxError(msg string) *Error {
	return &Error{Kind: KindSyntax, Message: msg, Offset: -1}
}

func typeError(msg string) *Error {
	return &Error{Kind: KindType, Message: msg, Offset: -1}
}

func referenceError(msg string) *Error {
	return &Error{Kind: KindReference, Message: msg, Offset: -1}
}

// at attaches the offending token and its offset.
func (e *Error) at(token string, offset int) *Error {
	e.Token = token
	e.Offset = offset
	return e
}

// missing renders token with a blank where a character is expected and puts a
// caret under it. before selects whether the blank goes in front of the token.
func (e *Error) missing(token string, offset int, before bool, note string) *Error {
	e.Offset = offset
	if before {
		e.Token = " " + token
		e.Pointer = caret(0) + " " + note
	} else {
		e.Token = token + " "
		e.Pointer = caret(len(token)) + " " + note
	}
	return e
}

// pointAt puts a caret under byte i of token.
func (e *Error) pointAt(token string, offset, i int, note string) *Error {
	e.Token = token
	e.Offset = offset
	e.Pointer = caret(i) + " " + note
	return e
}

func caret(col int) string {
	return strings.Repeat(" ", tokenPrefix+col) + "^"
}
