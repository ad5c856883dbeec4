package session

import "github.com/ethereum/go-ethereum/common"

// Session is one authenticated browser bound to an unlocked node account.
type Session struct {
	SchemaVersion uint8
	SessionID     string

	Address common.Address

	IPHash        [32]byte
	UserAgentHash [32]byte

	CreatedAt int64
	ExpiresAt int64
}
