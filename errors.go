// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package graphdb

import "fmt"

// ErrorKind classifies the errors the storage and transaction core can
// raise, matching the taxonomy external callers (binder, planner, CLI)
// are expected to switch on.
type ErrorKind uint8

// The closed set of error kinds the core ever returns. BINDER_ERROR and
// PARSER_ERROR are never raised here — they belong to the out-of-scope
// surface described in spec.md §1 — but are named so callers can type
// switch against the full taxonomy from spec.md §6 without an unknown
// default case.
const (
	ErrRuntime ErrorKind = iota
	ErrBinder
	ErrParser
	ErrCopy
	ErrTransactionManager
)

func (k ErrorKind) String() string {
	switch k {
	case ErrRuntime:
		return "RUNTIME_ERROR"
	case ErrBinder:
		return "BINDER_ERROR"
	case ErrParser:
		return "PARSER_ERROR"
	case ErrCopy:
		return "COPY_ERROR"
	case ErrTransactionManager:
		return "TRANSACTION_MANAGER_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Error is a typed, narrow-kind error value. Control-flow conditions that
// the teacher's source would otherwise need to thread through a dozen
// bool returns (write/write conflict, duplicate PK, capacity exceeded)
// are represented as concrete Reason values rather than distinct panics.
type Error struct {
	Kind   ErrorKind
	Reason Reason
	msg    string
}

// Reason narrows a RUNTIME_ERROR / TRANSACTION_MANAGER_ERROR into one of
// the specific conflict conditions named in spec.md §4.5–§4.9.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonWriteWriteConflict
	ReasonExistedPK
	ReasonNullPK
	ReasonNonExistPK
	ReasonCapacityExceeded
	ReasonActiveWriterLimit
	ReasonCheckpointTimeout
	ReasonCorruption
)

func (r Reason) String() string {
	switch r {
	case ReasonWriteWriteConflict:
		return "WRITE_WRITE_CONFLICT"
	case ReasonExistedPK:
		return "EXISTED_PK"
	case ReasonNullPK:
		return "NULL_PK"
	case ReasonNonExistPK:
		return "NON_EXIST_PK"
	case ReasonCapacityExceeded:
		return "CAPACITY_EXCEEDED"
	case ReasonActiveWriterLimit:
		return "ACTIVE_WRITER_LIMIT"
	case ReasonCheckpointTimeout:
		return "CHECKPOINT_TIMEOUT"
	case ReasonCorruption:
		return "CORRUPTION"
	default:
		return "NONE"
	}
}

func (e *Error) Error() string {
	if e.Reason != ReasonNone {
		return fmt.Sprintf("graphdb: %s (%s): %s", e.Kind, e.Reason, e.msg)
	}
	return fmt.Sprintf("graphdb: %s: %s", e.Kind, e.msg)
}

func newError(kind ErrorKind, reason Reason, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: reason, msg: fmt.Sprintf(format, args...)}
}

// errWriteWriteConflict reports that a row was already deleted by a
// different, still-live transaction.
func errWriteWriteConflict(rowIdx uint64) *Error {
	return newError(ErrRuntime, ReasonWriteWriteConflict,
		"row %d is already deleted by another in-flight transaction", rowIdx)
}

func errExistedPK(key interface{}) *Error {
	return newError(ErrRuntime, ReasonExistedPK, "primary key %v already exists", key)
}

func errNullPK() *Error {
	return newError(ErrRuntime, ReasonNullPK, "primary key value cannot be null")
}

func errNonExistPK(key interface{}) *Error {
	return newError(ErrRuntime, ReasonNonExistPK, "primary key %v does not exist", key)
}

func errCapacityExceeded(what string) *Error {
	return newError(ErrRuntime, ReasonCapacityExceeded, "%s exceeded its reserved capacity", what)
}

func errActiveWriterLimit() *Error {
	return newError(ErrTransactionManager, ReasonActiveWriterLimit,
		"only one write transaction is allowed at a time; enable EnableMultiWrites to relax this")
}

func errCheckpointTimeout() *Error {
	return newError(ErrTransactionManager, ReasonCheckpointTimeout,
		"timed out waiting for active transactions to leave the system before checkpointing")
}

func errCorruption(format string, args ...interface{}) *Error {
	return newError(ErrRuntime, ReasonCorruption, format, args...)
}
