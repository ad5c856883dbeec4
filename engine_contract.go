package goEstate

import (
	"context"
	"errors"
	"math/big"

	"github.com/MrEthical07/goEstate/contract"
	"github.com/ethereum/go-ethereum/common"
)

// AddEstate registers an estate owned by the credential's account.
func (e *Engine) AddEstate(ctx context.Context, cred Credential, in contract.EstateInput) (*contract.TxResult, error) {
	return e.transact(ctx, cred, contract.MethodAddEstate, func() (*contract.TxResult, error) {
		return e.gateway.AddEstate(ctx, cred.Address, in)
	})
}

// AddAdvert puts an estate of the credential's account up for sale.
func (e *Engine) AddAdvert(ctx context.Context, cred Credential, in contract.AdvertInput) (*contract.TxResult, error) {
	return e.transact(ctx, cred, contract.MethodAddAdvert, func() (*contract.TxResult, error) {
		return e.gateway.AddAdvert(ctx, cred.Address, in)
	})
}

// ChangeEstateStatus toggles the active flag of an estate.
func (e *Engine) ChangeEstateStatus(ctx context.Context, cred Credential, estateID *big.Int) (*contract.TxResult, error) {
	return e.transact(ctx, cred, contract.MethodChangeEstateStatus, func() (*contract.TxResult, error) {
		return e.gateway.ChangeEstateStatus(ctx, cred.Address, estateID)
	})
}

// ChangeAdvertStatus toggles the active flag of the advert for an estate.
func (e *Engine) ChangeAdvertStatus(ctx context.Context, cred Credential, estateID *big.Int) (*contract.TxResult, error) {
	return e.transact(ctx, cred, contract.MethodChangeAdvertStatus, func() (*contract.TxResult, error) {
		return e.gateway.ChangeAdvertStatus(ctx, cred.Address, estateID)
	})
}

// Withdraw moves amount of the caller's contract balance out in currency.
func (e *Engine) Withdraw(ctx context.Context, cred Credential, amount *big.Int, currency string) (*contract.TxResult, error) {
	return e.transact(ctx, cred, contract.MethodWithdraw, func() (*contract.TxResult, error) {
		return e.gateway.Withdraw(ctx, cred.Address, amount, currency)
	})
}

// BuyEstate pays value wei for an advertised estate.
func (e *Engine) BuyEstate(ctx context.Context, cred Credential, estateID, value *big.Int) (*contract.TxResult, error) {
	return e.transact(ctx, cred, contract.MethodBuyEstate, func() (*contract.TxResult, error) {
		return e.gateway.BuyEstate(ctx, cred.Address, estateID, value)
	})
}

// GetBalance reads the caller's contract balance. The call is sent from the caller.
func (e *Engine) GetBalance(ctx context.Context, cred Credential) (*big.Int, error) {
	if err := e.checkCredential(cred); err != nil {
		return nil, err
	}
	balance, err := e.gateway.GetBalance(ctx, cred.Address)
	e.recordCall(err)
	return balance, err
}

// GetEstates lists every estate.
func (e *Engine) GetEstates(ctx context.Context, cred Credential) ([]contract.Estate, error) {
	if err := e.checkCredential(cred); err != nil {
		return nil, err
	}
	estates, err := e.gateway.GetEstates(ctx)
	e.recordCall(err)
	return estates, err
}

// GetAdverts lists every advert.
func (e *Engine) GetAdverts(ctx context.Context, cred Credential) ([]contract.Advert, error) {
	if err := e.checkCredential(cred); err != nil {
		return nil, err
	}
	adverts, err := e.gateway.GetAdverts(ctx)
	e.recordCall(err)
	return adverts, err
}

func (e *Engine) checkCredential(cred Credential) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if cred.SessionID == "" || cred.Address == (common.Address{}) {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) transact(ctx context.Context, cred Credential, method string, send func() (*contract.TxResult, error)) (*contract.TxResult, error) {
	if err := e.checkCredential(cred); err != nil {
		return nil, err
	}

	res, err := send()
	e.recordOutcome(err, MetricTxSubmitted)

	e.emitAudit(ctx, auditEventTransaction, err == nil, cred.Address, cred.SessionID, err, func() map[string]string {
		meta := map[string]string{"method": method}
		if res != nil {
			meta["tx_hash"] = res.Hash.Hex()
		}
		return meta
	})
	return res, err
}

func (e *Engine) recordCall(err error) {
	e.recordOutcome(err, MetricCallSuccess)
}

func (e *Engine) recordOutcome(err error, success MetricID) {
	var rejected *contract.ContractRejectedError
	var argErr *contract.ArgumentInvalidError

	switch {
	case err == nil:
		e.metricInc(success)
	case errors.As(err, &rejected):
		e.metricInc(MetricContractRejected)
	case errors.As(err, &argErr):
		e.metricInc(MetricArgumentInvalid)
	default:
		e.metricInc(MetricNodeFailure)
	}
}
