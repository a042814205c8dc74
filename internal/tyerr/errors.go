package tyerr

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// enableDebugErrorPrinting makes errors include the frame that created them when printed
const enableDebugErrorPrinting bool = false
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	FlawedClassCode
	FlawedCallCode
	UnresolvedTypeCode
)

// TyError is a problem found in the input while solving. None of them stop
// the solver: callers decide which are fatal.
type TyError interface {
	Error() string
	Code() ErrCode

	withStack([]byte) TyError
	getStack() []byte
}

func FormatWithCode(e TyError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			stack = strings.Split(stack, "\n")[6]
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

func New[E TyError](err E) TyError {
	return err.withStack(debug.Stack())
}

// IsFlawedQuery reports whether err means that recorded usage contradicts a declaration
func IsFlawedQuery(err TyError) bool {
	switch err.Code() {
	case FlawedClassCode, FlawedCallCode:
		return true
	default:
		return false
	}
}

// FlawedClass means that a call record class can never be an instance of its nominal class
type FlawedClass struct {
	Partial  string
	Complete string
	stack    []byte
}

func (e FlawedClass) Error() string {
	return fmt.Sprintf("%s can never be %s", e.Partial, e.Complete)
}
func (e FlawedClass) Code() ErrCode    { return FlawedClassCode }
func (e FlawedClass) getStack() []byte { return e.stack }
func (e FlawedClass) withStack(stack []byte) TyError {
	e.stack = stack
	return e
}

// FlawedCall means that a recorded call could never have succeeded against any declared signature
type FlawedCall struct {
	Function string
	// Signature is the first expanded call signature that matches no overload, in pytd syntax.
	// It may be empty when every expanded signature matches on its own.
	Signature string
	stack     []byte
}

func (e FlawedCall) Error() string {
	return fmt.Sprintf("bad call %s%s", e.Function, e.Signature)
}
func (e FlawedCall) Code() ErrCode    { return FlawedCallCode }
func (e FlawedCall) getStack() []byte { return e.stack }
func (e FlawedCall) withStack(stack []byte) TyError {
	e.stack = stack
	return e
}

// UnresolvedType means a type name could not be found in any symbol table
type UnresolvedType struct {
	Name  string
	stack []byte
}

func (e UnresolvedType) Error() string {
	return fmt.Sprintf("type '%s' is not defined", e.Name)
}
func (e UnresolvedType) Code() ErrCode    { return UnresolvedTypeCode }
func (e UnresolvedType) getStack() []byte { return e.stack }
func (e UnresolvedType) withStack(stack []byte) TyError {
	e.stack = stack
	return e
}
