package web

import (
	"math/big"
	"net/http"

	goEstate "github.com/MrEthical07/goEstate"
	"github.com/MrEthical07/goEstate/contract"
)

type submitFunc func(r *http.Request, cred goEstate.Credential) (*contract.TxResult, error)

// transaction parses the form, runs submit for the session's account and reports the
// transaction hash.
func (h *handler) transaction(message string, submit submitFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !parseForm(w, r) {
			return
		}
		tx, err := submit(r, credential(r))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		success(w, r, message, tx)
	}
}

// formInts parses the named fields in order and stops at the first bad one.
func formInts(r *http.Request, names ...string) ([]*big.Int, error) {
	out := make([]*big.Int, len(names))
	for i, name := range names {
		n, err := contract.ParseInteger(name, r.PostForm.Get(name))
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (h *handler) addEstate(r *http.Request, cred goEstate.Credential) (*contract.TxResult, error) {
	n, err := formInts(r, "number", "area")
	if err != nil {
		return nil, err
	}
	return h.engine.AddEstate(r.Context(), cred, contract.EstateInput{
		Name:    r.PostForm.Get("name"),
		Number:  n[0],
		Address: r.PostForm.Get("address"),
		Type:    r.PostForm.Get("type"),
		Area:    n[1],
	})
}

func (h *handler) addAdvert(r *http.Request, cred goEstate.Credential) (*contract.TxResult, error) {
	n, err := formInts(r, "estate_id", "price")
	if err != nil {
		return nil, err
	}
	return h.engine.AddAdvert(r.Context(), cred, contract.AdvertInput{
		EstateID: n[0],
		Price:    n[1],
		Currency: r.PostForm.Get("currency"),
	})
}

func (h *handler) changeEstateStatus(r *http.Request, cred goEstate.Credential) (*contract.TxResult, error) {
	n, err := formInts(r, "estate_id")
	if err != nil {
		return nil, err
	}
	return h.engine.ChangeEstateStatus(r.Context(), cred, n[0])
}

func (h *handler) changeAdvertStatus(r *http.Request, cred goEstate.Credential) (*contract.TxResult, error) {
	n, err := formInts(r, "estate_id")
	if err != nil {
		return nil, err
	}
	return h.engine.ChangeAdvertStatus(r.Context(), cred, n[0])
}

func (h *handler) withdraw(r *http.Request, cred goEstate.Credential) (*contract.TxResult, error) {
	n, err := formInts(r, "amount")
	if err != nil {
		return nil, err
	}
	return h.engine.Withdraw(r.Context(), cred, n[0], r.PostForm.Get("currency"))
}

func (h *handler) buyEstate(r *http.Request, cred goEstate.Credential) (*contract.TxResult, error) {
	n, err := formInts(r, "estate_id", "value")
	if err != nil {
		return nil, err
	}
	return h.engine.BuyEstate(r.Context(), cred, n[0], n[1])
}

func (h *handler) getBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.engine.GetBalance(r.Context(), credential(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	success(w, r, "Your balance: "+balance.String(), map[string]string{"balance": balance.String()})
}

func (h *handler) getEstates(w http.ResponseWriter, r *http.Request) {
	estates, err := h.engine.GetEstates(r.Context(), credential(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if estates == nil {
		estates = []contract.Estate{}
	}
	success(w, r, "estates", estates)
}

func (h *handler) getAdverts(w http.ResponseWriter, r *http.Request) {
	adverts, err := h.engine.GetAdverts(r.Context(), credential(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if adverts == nil {
		adverts = []contract.Advert{}
	}
	success(w, r, "adverts", adverts)
}
