package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput indicates a broken contract with the discovery collaborator
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingAddress indicates participating nodes without a loopback address
	ErrMissingAddress = errors.New("missing address")

	// ErrNoReflectors indicates a tier has clients but its parent tier is empty
	ErrNoReflectors = errors.New("no reflector candidates")

	// ErrInvalidTierTable indicates an inconsistent tier table
	ErrInvalidTierTable = errors.New("invalid tier table")
)

// ErrorKind classifies hard planning failures
type ErrorKind string

const (
	KindInvalidInput     ErrorKind = "invalid-input"
	KindMissingAddress   ErrorKind = "missing-address"
	KindNoReflectors     ErrorKind = "no-reflector-candidates"
	KindInvalidTierTable ErrorKind = "invalid-tier-table"
)

// Error is a hard failure raised before or during plan construction
type Error struct {
	Kind    ErrorKind
	NodeIDs []string
	Detail  string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if len(e.NodeIDs) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.NodeIDs, ", "))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// Is lets errors.Is match the kind sentinels
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return e.Kind == KindInvalidInput
	case ErrMissingAddress:
		return e.Kind == KindMissingAddress
	case ErrNoReflectors:
		return e.Kind == KindNoReflectors
	case ErrInvalidTierTable:
		return e.Kind == KindInvalidTierTable
	}
	return false
}

// NewInputError reports malformed input, optionally tied to a node
func NewInputError(nodeID, detail string) *Error {
	e := &Error{Kind: KindInvalidInput, Detail: detail}
	if nodeID != "" {
		e.NodeIDs = []string{nodeID}
	}
	return e
}

// NewMissingAddressError reports every node lacking an address at once
func NewMissingAddressError(nodeIDs []string) *Error {
	return &Error{
		Kind:    KindMissingAddress,
		NodeIDs: nodeIDs,
		Detail:  "loopback address not resolved",
	}
}

// NewNoReflectorsError reports a client tier whose parent tier has no members
func NewNoReflectorsError(tier, parent string, clients []string) *Error {
	return &Error{
		Kind:    KindNoReflectors,
		NodeIDs: clients,
		Detail:  fmt.Sprintf("tier %q has clients but parent tier %q has no nodes", tier, parent),
	}
}

// NewTierTableError reports an inconsistent tier table
func NewTierTableError(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidTierTable, Detail: fmt.Sprintf(format, args...)}
}
