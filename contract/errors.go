package contract

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goEstate/node"
)

var (
	// ErrNodeFailure wraps every node error that is not a contract revert.
	ErrNodeFailure = errors.New("node call failed")
	// ErrNilBackend is returned by New when no backend is supplied.
	ErrNilBackend = errors.New("nil contract backend")
	// ErrMissingMethod is returned by New when the ABI lacks a required function.
	ErrMissingMethod = errors.New("abi is missing a required method")
)

// ContractRejectedError reports that the contract reverted the call.
type ContractRejectedError struct {
	Method  string
	Message string
}

func (e *ContractRejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("contract rejected %s", e.Method)
	}
	return fmt.Sprintf("contract rejected %s: %s", e.Method, e.Message)
}

// ArgumentInvalidError reports a value that cannot be encoded as the integer the
// contract expects.
type ArgumentInvalidError struct {
	Field string
	Value string
}

func (e *ArgumentInvalidError) Error() string {
	return fmt.Sprintf("invalid data format: %s=%q is not a non-negative integer", e.Field, e.Value)
}

func classify(method string, err error) error {
	if reason, ok := node.RevertReason(err); ok {
		return &ContractRejectedError{Method: method, Message: reason}
	}
	return fmt.Errorf("%w: %s: %w", ErrNodeFailure, method, err)
}
