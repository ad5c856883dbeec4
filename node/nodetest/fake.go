// Package nodetest provides an in-process Ethereum node double speaking the personal_* and
// eth_* JSON-RPC methods used by this module. It records every call so tests can assert on
// the exact sender, value and call count the code under test produced.
package nodetest

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/MrEthical07/goEstate/node"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// ChainID is the chain identifier reported by the fake node.
const ChainID = 1337

// revertSelector is the 4-byte selector of Error(string).
var revertSelector = []byte{0x08, 0xc3, 0x79, 0xa0}

type revertError struct {
	reason string
	data   string
}

func (e *revertError) Error() string          { return "execution reverted: " + e.reason }
func (e *revertError) ErrorCode() int         { return 3 }
func (e *revertError) ErrorData() interface{} { return e.data }

// Fake is a scripted node. The zero value is not usable; call [New].
type Fake struct {
	mu sync.Mutex

	server    *rpc.Server
	passwords map[common.Address]string
	accounts  []common.Address
	unlocked  map[common.Address]bool

	unlockCalls []common.Address
	lockCalls   []common.Address
	sent        []node.TxArgs
	calls       []node.TxArgs

	callResults map[string][]byte
	revert      string
	nextAccount int64
}

// New starts an in-process rpc server backed by a fresh Fake.
func New() *Fake {
	f := &Fake{
		server:      rpc.NewServer(),
		passwords:   make(map[common.Address]string),
		unlocked:    make(map[common.Address]bool),
		callResults: make(map[string][]byte),
		nextAccount: 0x1000,
	}
	if err := f.server.RegisterName("personal", &personalAPI{f: f}); err != nil {
		panic(err)
	}
	if err := f.server.RegisterName("eth", &ethAPI{f: f}); err != nil {
		panic(err)
	}
	return f
}

// Client returns a [node.Client] connected to the fake over an in-process pipe.
func (f *Fake) Client(opts node.Options) *node.Client {
	c, err := node.NewClient(rpc.DialInProc(f.server), opts)
	if err != nil {
		panic(err)
	}
	return c
}

// Close stops the rpc server.
func (f *Fake) Close() {
	f.server.Stop()
}

// AddAccount registers a locked account protected by password.
func (f *Fake) AddAccount(password string) common.Address {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addAccountLocked(password)
}

func (f *Fake) addAccountLocked(password string) common.Address {
	f.nextAccount++
	addr := common.BigToAddress(big.NewInt(f.nextAccount))
	f.passwords[addr] = password
	f.accounts = append(f.accounts, addr)
	return addr
}

// RevertWith makes every following eth_call and eth_sendTransaction revert with reason.
// An empty reason restores normal execution.
func (f *Fake) RevertWith(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revert = reason
}

// SetCallResult scripts the return data of eth_call for the method with selector.
func (f *Fake) SetCallResult(selector []byte, out []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callResults[string(selector)] = append([]byte(nil), out...)
}

// Unlocked reports whether addr is currently unlocked.
func (f *Fake) Unlocked(addr common.Address) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unlocked[addr]
}

// UnlockCalls returns the addresses of every personal_unlockAccount call, in order.
func (f *Fake) UnlockCalls() []common.Address {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]common.Address(nil), f.unlockCalls...)
}

// LockCalls returns the addresses of every personal_lockAccount call, in order.
func (f *Fake) LockCalls() []common.Address {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]common.Address(nil), f.lockCalls...)
}

// Sent returns every transaction submitted with eth_sendTransaction, in order.
func (f *Fake) Sent() []node.TxArgs {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]node.TxArgs(nil), f.sent...)
}

// Calls returns every message executed with eth_call, in order.
func (f *Fake) Calls() []node.TxArgs {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]node.TxArgs(nil), f.calls...)
}

// RevertData encodes reason the way Solidity's require/revert does.
func RevertData(reason string) []byte {
	stringTy, err := abi.NewType("string", "", nil)
	if err != nil {
		panic(err)
	}
	packed, err := abi.Arguments{{Type: stringTy}}.Pack(reason)
	if err != nil {
		panic(err)
	}
	return append(append([]byte(nil), revertSelector...), packed...)
}

func (f *Fake) revertErrLocked() error {
	if f.revert == "" {
		return nil
	}
	return &revertError{reason: f.revert, data: hexutil.Encode(RevertData(f.revert))}
}

type personalAPI struct{ f *Fake }

func (p *personalAPI) UnlockAccount(addr common.Address, password string, duration *uint64) (bool, error) {
	f := p.f
	f.mu.Lock()
	defer f.mu.Unlock()

	f.unlockCalls = append(f.unlockCalls, addr)
	stored, ok := f.passwords[addr]
	if !ok {
		return false, errors.New("no key for given address or file")
	}
	if stored != password {
		return false, errors.New("could not decrypt key with given password")
	}
	f.unlocked[addr] = true
	return true, nil
}

func (p *personalAPI) LockAccount(addr common.Address) bool {
	f := p.f
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lockCalls = append(f.lockCalls, addr)
	if _, ok := f.passwords[addr]; !ok {
		return false
	}
	delete(f.unlocked, addr)
	return true
}

func (p *personalAPI) NewAccount(password string) (common.Address, error) {
	f := p.f
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addAccountLocked(password), nil
}

type ethAPI struct{ f *Fake }

func (e *ethAPI) ChainId() *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(ChainID))
}

func (e *ethAPI) Accounts() []common.Address {
	f := e.f
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]common.Address(nil), f.accounts...)
}

func (e *ethAPI) SendTransaction(args node.TxArgs) (common.Hash, error) {
	f := e.f
	f.mu.Lock()
	defer f.mu.Unlock()

	if args.From == nil {
		return common.Hash{}, errors.New("missing from")
	}
	if !f.unlocked[*args.From] {
		return common.Hash{}, errors.New("authentication needed: password or unlock")
	}
	if err := f.revertErrLocked(); err != nil {
		return common.Hash{}, err
	}
	f.sent = append(f.sent, args)
	return common.BigToHash(big.NewInt(int64(len(f.sent)))), nil
}

func (e *ethAPI) Call(args node.TxArgs, block string) (hexutil.Bytes, error) {
	f := e.f
	f.mu.Lock()
	defer f.mu.Unlock()

	if block != "latest" {
		return nil, fmt.Errorf("unsupported block %q", block)
	}
	f.calls = append(f.calls, args)
	if err := f.revertErrLocked(); err != nil {
		return nil, err
	}
	if len(args.Data) < 4 {
		return nil, errors.New("missing selector")
	}
	for selector, out := range f.callResults {
		if bytes.Equal([]byte(selector), args.Data[:4]) {
			return out, nil
		}
	}
	return hexutil.Bytes{}, nil
}
