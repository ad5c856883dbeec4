package node

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// revertErrorCode is the JSON-RPC error code geth uses for reverted executions.
const revertErrorCode = 3

const revertPrefix = "execution reverted"

// RevertReason reports whether err is an execution revert and returns the contract's
// reason string. The reason is decoded from the error data when the node supplies it,
// otherwise it is taken from the message with the "execution reverted" prefix removed.
func RevertReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	msg := err.Error()
	reverted := false

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		msg = rpcErr.Error()
		reverted = rpcErr.ErrorCode() == revertErrorCode
	}
	if strings.HasPrefix(msg, revertPrefix) {
		reverted = true
	}
	if !reverted {
		return "", false
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if hexData, ok := dataErr.ErrorData().(string); ok {
			if raw, decErr := hexutil.Decode(hexData); decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(raw); unpackErr == nil {
					return reason, true
				}
			}
		}
	}

	reason := strings.TrimPrefix(msg, revertPrefix)
	reason = strings.TrimPrefix(reason, ":")
	return strings.TrimSpace(reason), true
}

// IsServerError reports whether err carries a JSON-RPC error object, meaning the node was
// reached and answered. Transport failures and timeouts return false.
func IsServerError(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}
