package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Contract function names as declared in the ABI.
const (
	MethodAddEstate          = "AddEstate"
	MethodAddAdvert          = "AddAdvert"
	MethodChangeEstateStatus = "ChangeEstateStatus"
	MethodChangeAdvertStatus = "ChangeAdvertStatus"
	MethodWithdraw           = "withdraw"
	MethodBuyEstate          = "buy_estate"
	MethodGetBalance         = "get_balance"
	MethodGetEstates         = "get_estates"
	MethodGetAdverts         = "get_adverts"
)

// RequiredMethods lists every function a contract ABI must declare.
var RequiredMethods = []string{
	MethodAddEstate,
	MethodAddAdvert,
	MethodChangeEstateStatus,
	MethodChangeAdvertStatus,
	MethodWithdraw,
	MethodBuyEstate,
	MethodGetBalance,
	MethodGetEstates,
	MethodGetAdverts,
}

// Estate mirrors one element of get_estates. Field order and types follow the ABI
// tuple, which decoding depends on.
type Estate struct {
	ID            *big.Int       `abi:"id" json:"id"`
	Name          string         `abi:"name" json:"name"`
	Number        *big.Int       `abi:"number" json:"number"`
	EstateAddress string         `abi:"estateAddress" json:"address"`
	Owner         common.Address `abi:"owner" json:"owner"`
	EstateType    string         `abi:"estateType" json:"type"`
	Area          *big.Int       `abi:"area" json:"area"`
	IsActive      bool           `abi:"isActive" json:"is_active"`
}

// Advert mirrors one element of get_adverts. Adverts are keyed by the estate they sell.
type Advert struct {
	EstateID *big.Int       `abi:"estateId" json:"estate_id"`
	Seller   common.Address `abi:"seller" json:"seller"`
	Buyer    common.Address `abi:"buyer" json:"buyer"`
	Price    *big.Int       `abi:"price" json:"price"`
	Currency string         `abi:"currency" json:"currency"`
	IsActive bool           `abi:"isActive" json:"is_active"`
}

// EstateInput holds the arguments of AddEstate.
type EstateInput struct {
	Name    string
	Number  *big.Int
	Address string
	Type    string
	Area    *big.Int
}

// AdvertInput holds the arguments of AddAdvert.
type AdvertInput struct {
	EstateID *big.Int
	Price    *big.Int
	Currency string
}

// TxResult is the outcome of an accepted write.
type TxResult struct {
	Method string      `json:"method"`
	Hash   common.Hash `json:"tx_hash"`
}
