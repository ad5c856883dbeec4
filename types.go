package goEstate

import (
	"context"
	"math/big"
	"time"

	"github.com/MrEthical07/goEstate/node"
	"github.com/ethereum/go-ethereum/common"
)

// Credential is the per-request view of an authenticated session. The router resolves
// it from the session cookie with [Engine.Authenticate] and every contract operation
// takes it explicitly; no request can observe another request's credential.
type Credential struct {
	SessionID string
	Address   common.Address
	ExpiresAt time.Time
}

// LoginResult is returned by [Engine.Login] and [Engine.Register].
type LoginResult struct {
	// Token is the signed session token to hand back to the client (cookie value).
	Token      string
	Credential Credential
	// Created is true when Register minted a new node account.
	Created bool
}

// Node is the subset of the node JSON-RPC surface the Engine depends on.
// [*node.Client] satisfies it.
type Node interface {
	UnlockAccount(ctx context.Context, addr common.Address, password string, duration time.Duration) error
	LockAccount(ctx context.Context, addr common.Address) error
	NewAccount(ctx context.Context, password string) (common.Address, error)
	Accounts(ctx context.Context) ([]common.Address, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, args node.TxArgs) (common.Hash, error)
	Call(ctx context.Context, args node.TxArgs) ([]byte, error)
}

// HealthStatus is returned by [Engine.Health].
type HealthStatus struct {
	NodeReachable  bool
	ChainID        string
	NodeLatency    time.Duration
	RedisReachable bool
	RedisLatency   time.Duration
}

// Healthy reports whether every backend answered.
func (h HealthStatus) Healthy() bool {
	return h.NodeReachable && h.RedisReachable
}
