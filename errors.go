/*
This file is part of the msx water-quality engine.

msx is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

msx is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
GNU General Public License for more details.
*/

package msx

import "errors"

// Kind identifies an error category for callers that need a numeric
// code rather than a Go error value, mirroring the fixed error-code
// ABI a C caller linking against this engine would expect.
type Kind int

const (
	KindNone Kind = iota
	KindNotOpened
	KindAlreadyOpened
	KindOutOfMemory
	KindInvalidObjectType
	KindInvalidObjectIndex
	KindInvalidObjectParams
	KindUndefinedObjectID
	KindDuplicateID
	KindDuplicateExpression
	KindKeyword
	KindNumber
	KindName
	KindMathExpr
	KindMathDomain
	KindIntegrationFailure
	KindEquilibriumFailure
	KindHydraulicsUnavailable
	KindHydraulicsRead
	KindOutputWrite
)

// Sentinel errors. Wrap with fmt.Errorf("msx: ...: %w", err) at the call
// site and recover the Kind with KindOf.
var (
	ErrNotOpened             = errors.New("msx: project not opened")
	ErrAlreadyOpened         = errors.New("msx: project already opened")
	ErrOutOfMemory           = errors.New("msx: out of memory")
	ErrInvalidObjectType     = errors.New("msx: invalid object type")
	ErrInvalidObjectIndex    = errors.New("msx: invalid object index")
	ErrInvalidObjectParams   = errors.New("msx: invalid object parameters")
	ErrUndefinedObjectID     = errors.New("msx: undefined object id")
	ErrDuplicateID           = errors.New("msx: duplicate id")
	ErrDuplicateExpression   = errors.New("msx: duplicate expression")
	ErrKeyword               = errors.New("msx: unrecognized keyword")
	ErrNumber                = errors.New("msx: invalid number")
	ErrName                  = errors.New("msx: invalid name")
	ErrMathExpr              = errors.New("msx: malformed math expression")
	ErrMathDomain            = errors.New("msx: math domain error")
	ErrIntegrationFailure    = errors.New("msx: integration failure")
	ErrEquilibriumFailure    = errors.New("msx: equilibrium solve failure")
	ErrHydraulicsUnavailable = errors.New("msx: hydraulics unavailable")
	ErrHydraulicsRead        = errors.New("msx: hydraulics read error")
	ErrOutputWrite           = errors.New("msx: output write error")
)

var kindOf = map[error]Kind{
	ErrNotOpened:             KindNotOpened,
	ErrAlreadyOpened:         KindAlreadyOpened,
	ErrOutOfMemory:           KindOutOfMemory,
	ErrInvalidObjectType:     KindInvalidObjectType,
	ErrInvalidObjectIndex:    KindInvalidObjectIndex,
	ErrInvalidObjectParams:   KindInvalidObjectParams,
	ErrUndefinedObjectID:     KindUndefinedObjectID,
	ErrDuplicateID:           KindDuplicateID,
	ErrDuplicateExpression:   KindDuplicateExpression,
	ErrKeyword:               KindKeyword,
	ErrNumber:                KindNumber,
	ErrName:                  KindName,
	ErrMathExpr:              KindMathExpr,
	ErrMathDomain:            KindMathDomain,
	ErrIntegrationFailure:    KindIntegrationFailure,
	ErrEquilibriumFailure:    KindEquilibriumFailure,
	ErrHydraulicsUnavailable: KindHydraulicsUnavailable,
	ErrHydraulicsRead:        KindHydraulicsRead,
	ErrOutputWrite:           KindOutputWrite,
}

// KindOf walks err's wrap chain and returns the ABI Kind of the first
// sentinel it recognizes, or KindNone if the error is not one of ours.
func KindOf(err error) Kind {
	for sentinel, kind := range kindOf {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindNone
}
