package contract

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"math/big"

	"github.com/MrEthical07/goEstate/node"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

//go:embed abi.json
var defaultABI []byte

// DefaultABI returns a copy of the embedded contract ABI.
func DefaultABI() []byte {
	return append([]byte(nil), defaultABI...)
}

// Backend is the subset of the node client the gateway needs. *node.Client satisfies it.
type Backend interface {
	SendTransaction(ctx context.Context, args node.TxArgs) (common.Hash, error)
	Call(ctx context.Context, args node.TxArgs) ([]byte, error)
}

// Gateway issues typed calls against one deployed contract. It holds no per-user state
// and is safe for concurrent use.
type Gateway struct {
	backend Backend
	address common.Address
	abi     abi.ABI
}

// New binds backend to the contract at address. A nil abiJSON selects the embedded ABI.
func New(backend Backend, address common.Address, abiJSON []byte) (*Gateway, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	if abiJSON == nil {
		abiJSON = defaultABI
	}

	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}
	for _, name := range RequiredMethods {
		if _, ok := parsed.Methods[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingMethod, name)
		}
	}

	return &Gateway{backend: backend, address: address, abi: parsed}, nil
}

// Address returns the contract address.
func (g *Gateway) Address() common.Address {
	return g.address
}

// AddEstate registers a new estate owned by from.
func (g *Gateway) AddEstate(ctx context.Context, from common.Address, in EstateInput) (*TxResult, error) {
	if err := checkUint("number", in.Number); err != nil {
		return nil, err
	}
	if err := checkUint("area", in.Area); err != nil {
		return nil, err
	}
	return g.transact(ctx, MethodAddEstate, from, nil, in.Name, in.Number, in.Address, in.Type, in.Area)
}

// AddAdvert puts an estate owned by from up for sale.
func (g *Gateway) AddAdvert(ctx context.Context, from common.Address, in AdvertInput) (*TxResult, error) {
	if err := checkUint("estate_id", in.EstateID); err != nil {
		return nil, err
	}
	if err := checkUint("price", in.Price); err != nil {
		return nil, err
	}
	return g.transact(ctx, MethodAddAdvert, from, nil, in.EstateID, in.Price, in.Currency)
}

// ChangeEstateStatus toggles the active flag of an estate.
func (g *Gateway) ChangeEstateStatus(ctx context.Context, from common.Address, estateID *big.Int) (*TxResult, error) {
	if err := checkUint("estate_id", estateID); err != nil {
		return nil, err
	}
	return g.transact(ctx, MethodChangeEstateStatus, from, nil, estateID)
}

// ChangeAdvertStatus toggles the active flag of the advert for an estate.
func (g *Gateway) ChangeAdvertStatus(ctx context.Context, from common.Address, estateID *big.Int) (*TxResult, error) {
	if err := checkUint("estate_id", estateID); err != nil {
		return nil, err
	}
	return g.transact(ctx, MethodChangeAdvertStatus, from, nil, estateID)
}

// Withdraw moves amount of from's contract balance out in currency.
func (g *Gateway) Withdraw(ctx context.Context, from common.Address, amount *big.Int, currency string) (*TxResult, error) {
	if err := checkUint("amount", amount); err != nil {
		return nil, err
	}
	return g.transact(ctx, MethodWithdraw, from, nil, amount, currency)
}

// BuyEstate pays value wei for the advertised estate.
func (g *Gateway) BuyEstate(ctx context.Context, from common.Address, estateID, value *big.Int) (*TxResult, error) {
	if err := checkUint("estate_id", estateID); err != nil {
		return nil, err
	}
	if err := checkUint("value", value); err != nil {
		return nil, err
	}
	return g.transact(ctx, MethodBuyEstate, from, value, estateID)
}

// GetBalance reads the contract balance of from. The call is sent with from as sender
// because the contract resolves the balance from msg.sender.
func (g *Gateway) GetBalance(ctx context.Context, from common.Address) (*big.Int, error) {
	var balance *big.Int
	if err := g.call(ctx, MethodGetBalance, &from, &balance); err != nil {
		return nil, err
	}
	if balance == nil {
		balance = new(big.Int)
	}
	return balance, nil
}

// GetEstates lists every estate known to the contract.
func (g *Gateway) GetEstates(ctx context.Context) ([]Estate, error) {
	var estates []Estate
	if err := g.call(ctx, MethodGetEstates, nil, &estates); err != nil {
		return nil, err
	}
	return estates, nil
}

// GetAdverts lists every advert known to the contract.
func (g *Gateway) GetAdverts(ctx context.Context) ([]Advert, error) {
	var adverts []Advert
	if err := g.call(ctx, MethodGetAdverts, nil, &adverts); err != nil {
		return nil, err
	}
	return adverts, nil
}

func (g *Gateway) transact(ctx context.Context, method string, from common.Address, value *big.Int, args ...interface{}) (*TxResult, error) {
	data, err := g.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	to := g.address
	tx := node.TxArgs{From: &from, To: &to, Data: data}
	if value != nil {
		tx.Value = (*hexutil.Big)(new(big.Int).Set(value))
	}

	hash, err := g.backend.SendTransaction(ctx, tx)
	if err != nil {
		return nil, classify(method, err)
	}
	return &TxResult{Method: method, Hash: hash}, nil
}

func (g *Gateway) call(ctx context.Context, method string, from *common.Address, out interface{}) error {
	data, err := g.abi.Pack(method)
	if err != nil {
		return fmt.Errorf("pack %s: %w", method, err)
	}

	to := g.address
	raw, err := g.backend.Call(ctx, node.TxArgs{From: from, To: &to, Data: data})
	if err != nil {
		return classify(method, err)
	}

	values, err := g.abi.Unpack(method, raw)
	if err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrNodeFailure, method, err)
	}
	if err := g.abi.Methods[method].Outputs.Copy(out, values); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrNodeFailure, method, err)
	}
	return nil
}
