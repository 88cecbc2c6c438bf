package ledger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the contract reports that an identifier does
	// not exist. Callers must be able to tell this apart from ErrUnavailable:
	// the reconciliation flow degrades on unavailability but treats a genuine
	// miss differently.
	ErrNotFound = errors.New("record not found on ledger")

	// ErrUnavailable is returned when the ledger node or transport failed.
	ErrUnavailable = errors.New("ledger unavailable")

	// ErrNotConnected is returned when an operation is attempted before Connect.
	ErrNotConnected = errors.New("ledger client not connected")

	// ErrNoSigningKey is returned for state-changing calls without a configured key.
	ErrNoSigningKey = errors.New("no signing key configured")
)

// classifyCallError maps a raw node error onto the adapter's taxonomy. An
// execution revert means the contract itself rejected the call, which for the
// read paths used here means the identifier does not exist. Everything else is
// a transport or node problem.
func classifyCallError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "execution reverted") || strings.Contains(msg, "revert") {
		return fmt.Errorf("%w: %s", ErrNotFound, err.Error())
	}
	return fmt.Errorf("%w: %s", ErrUnavailable, err.Error())
}
