package goEstate

import (
	"context"
	"math/big"
	"time"

	"github.com/MrEthical07/goEstate/node"
	"github.com/ethereum/go-ethereum/common"
)

// meteredNode records the latency of every node call in MetricNodeCallLatency. The
// contract gateway and the Engine share it.
type meteredNode struct {
	next    Node
	metrics *Metrics
}

func (n *meteredNode) observe(start time.Time) {
	n.metrics.Observe(MetricNodeCallLatency, time.Since(start))
}

func (n *meteredNode) UnlockAccount(ctx context.Context, addr common.Address, password string, duration time.Duration) error {
	defer n.observe(time.Now())
	return n.next.UnlockAccount(ctx, addr, password, duration)
}

func (n *meteredNode) LockAccount(ctx context.Context, addr common.Address) error {
	defer n.observe(time.Now())
	return n.next.LockAccount(ctx, addr)
}

func (n *meteredNode) NewAccount(ctx context.Context, password string) (common.Address, error) {
	defer n.observe(time.Now())
	return n.next.NewAccount(ctx, password)
}

func (n *meteredNode) Accounts(ctx context.Context) ([]common.Address, error) {
	defer n.observe(time.Now())
	return n.next.Accounts(ctx)
}

func (n *meteredNode) ChainID(ctx context.Context) (*big.Int, error) {
	defer n.observe(time.Now())
	return n.next.ChainID(ctx)
}

func (n *meteredNode) SendTransaction(ctx context.Context, args node.TxArgs) (common.Hash, error) {
	defer n.observe(time.Now())
	return n.next.SendTransaction(ctx, args)
}

func (n *meteredNode) Call(ctx context.Context, args node.TxArgs) ([]byte, error) {
	defer n.observe(time.Now())
	return n.next.Call(ctx, args)
}
