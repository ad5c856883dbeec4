package node

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrUnlockRejected is returned when the node answers an unlock request with false.
	ErrUnlockRejected = errors.New("node refused to unlock account")
	// ErrLockRejected is returned when the node answers a lock request with false.
	ErrLockRejected = errors.New("node refused to lock account")
	// ErrNilClient is returned by [NewClient] when no rpc client is supplied.
	ErrNilClient = errors.New("nil rpc client")
)

// TxArgs is the transaction object shared by eth_sendTransaction and eth_call.
type TxArgs struct {
	From  *common.Address `json:"from,omitempty"`
	To    *common.Address `json:"to,omitempty"`
	Gas   *hexutil.Uint64 `json:"gas,omitempty"`
	Value *hexutil.Big    `json:"value,omitempty"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
}

// Options tunes a [Client].
type Options struct {
	// RequestTimeout bounds every call. Zero leaves the caller's context untouched.
	RequestTimeout time.Duration
	// Observer, when set, receives the JSON-RPC method, latency and result of every call.
	Observer func(method string, elapsed time.Duration, err error)
}

// Client issues JSON-RPC calls against one node. It is safe for concurrent use.
type Client struct {
	rpc  *rpc.Client
	opts Options
}

// Dial connects to the node at url (http, ws or ipc endpoint).
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial node %s: %w", url, err)
	}
	return NewClient(c, opts)
}

// NewClient wraps an already connected rpc client.
func NewClient(c *rpc.Client, opts Options) (*Client, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	return &Client{rpc: c, opts: opts}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() {
	if c == nil || c.rpc == nil {
		return
	}
	c.rpc.Close()
}

// UnlockAccount asks the node to unlock addr with password for duration.
// A zero duration is sent as null so the node applies its own default.
func (c *Client) UnlockAccount(ctx context.Context, addr common.Address, password string, duration time.Duration) error {
	var seconds *uint64
	if duration > 0 {
		s := uint64(duration / time.Second)
		seconds = &s
	}

	var ok bool
	if err := c.call(ctx, &ok, "personal_unlockAccount", addr, password, seconds); err != nil {
		return err
	}
	if !ok {
		return ErrUnlockRejected
	}
	return nil
}

// LockAccount asks the node to forget the unlocked key of addr.
func (c *Client) LockAccount(ctx context.Context, addr common.Address) error {
	var ok bool
	if err := c.call(ctx, &ok, "personal_lockAccount", addr); err != nil {
		return err
	}
	if !ok {
		return ErrLockRejected
	}
	return nil
}

// NewAccount asks the node to mint a key protected by password.
func (c *Client) NewAccount(ctx context.Context, password string) (common.Address, error) {
	var addr common.Address
	if err := c.call(ctx, &addr, "personal_newAccount", password); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

// Accounts lists the addresses whose keys the node holds.
func (c *Client) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := c.call(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ChainID returns the chain identifier. Used as the node health check.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var id hexutil.Big
	if err := c.call(ctx, &id, "eth_chainId"); err != nil {
		return nil, err
	}
	return (*big.Int)(&id), nil
}

// SendTransaction submits a transaction the node signs with the unlocked from account.
func (c *Client) SendTransaction(ctx context.Context, args TxArgs) (common.Hash, error) {
	var hash common.Hash
	if err := c.call(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// Call executes a read-only message call against the latest block.
func (c *Client) Call(ctx context.Context, args TxArgs) ([]byte, error) {
	var out hexutil.Bytes
	if err := c.call(ctx, &out, "eth_call", args, "latest"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if c == nil || c.rpc == nil {
		return ErrNilClient
	}
	if c.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	err := c.rpc.CallContext(ctx, result, method, args...)
	if c.opts.Observer != nil {
		c.opts.Observer(method, time.Since(start), err)
	}
	return err
}
