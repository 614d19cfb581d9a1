// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the errors which abort an operation and roll back its effects.
package reverts

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies reverts.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindArithmetic
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not-found"
	case KindArithmetic:
		return "arithmetic"
	case KindExternal:
		return "external"
	default:
		return "internal"
	}
}

// arithmetic and invariant failures shared by every component
var (
	ErrOverflow           = New(KindArithmetic, "overflow")
	ErrDivideByZero       = New(KindArithmetic, "divide by zero")
	ErrConversionOverflow = New(KindArithmetic, "conversion overflow")
	ErrInternalInvariant  = New(KindInternal, "internal invariant violated")
)

type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return New(kind, fmt.Sprintf(format, args...))
}

func Validation(format string, args ...any) *ErrRevert {
	return Newf(KindValidation, format, args...)
}

func Unauthorized(format string, args ...any) *ErrRevert {
	return Newf(KindUnauthorized, format, args...)
}

func NotFound(format string, args ...any) *ErrRevert {
	return Newf(KindNotFound, format, args...)
}

func External(format string, args ...any) *ErrRevert {
	return Newf(KindExternal, format, args...)
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf returns the kind of the revert wrapped in err.
// Errors which are not reverts, like storage failures, are internal.
func KindOf(err error) Kind {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind
	}
	return KindInternal
}
