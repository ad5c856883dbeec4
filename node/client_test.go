package node_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goEstate/node"
	"github.com/MrEthical07/goEstate/node/nodetest"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

func TestUnlockAndLockRoundTrip(t *testing.T) {
	fake := nodetest.New()
	defer fake.Close()
	client := fake.Client(node.Options{})
	defer client.Close()

	ctx := context.Background()
	addr := fake.AddAccount("Correct#Horse9")

	if err := client.UnlockAccount(ctx, addr, "Correct#Horse9", time.Minute); err != nil {
		t.Fatalf("UnlockAccount failed: %v", err)
	}
	if !fake.Unlocked(addr) {
		t.Fatal("expected account to be unlocked")
	}

	if err := client.LockAccount(ctx, addr); err != nil {
		t.Fatalf("LockAccount failed: %v", err)
	}
	if fake.Unlocked(addr) {
		t.Fatal("expected account to be locked")
	}
}

func TestUnlockWrongPasswordSurfacesNodeMessage(t *testing.T) {
	fake := nodetest.New()
	defer fake.Close()
	client := fake.Client(node.Options{})
	defer client.Close()

	addr := fake.AddAccount("Correct#Horse9")
	err := client.UnlockAccount(context.Background(), addr, "wrong", 0)
	if err == nil {
		t.Fatal("expected unlock to fail")
	}
	if !strings.Contains(err.Error(), "could not decrypt key") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !node.IsServerError(err) {
		t.Fatal("expected a server-side rpc error")
	}
	if _, ok := node.RevertReason(err); ok {
		t.Fatal("unlock failure must not be classified as revert")
	}
}

func TestLockUnknownAccountRejected(t *testing.T) {
	fake := nodetest.New()
	defer fake.Close()
	client := fake.Client(node.Options{})
	defer client.Close()

	err := client.LockAccount(context.Background(), common.HexToAddress("0xdead"))
	if !errors.Is(err, node.ErrLockRejected) {
		t.Fatalf("expected ErrLockRejected, got %v", err)
	}
}

func TestNewAccountAppearsInAccounts(t *testing.T) {
	fake := nodetest.New()
	defer fake.Close()
	client := fake.Client(node.Options{})
	defer client.Close()

	ctx := context.Background()
	addr, err := client.NewAccount(ctx, "Str0ng!Passw0rd")
	if err != nil {
		t.Fatalf("NewAccount failed: %v", err)
	}

	accounts, err := client.Accounts(ctx)
	if err != nil {
		t.Fatalf("Accounts failed: %v", err)
	}
	if len(accounts) != 1 || accounts[0] != addr {
		t.Fatalf("expected [%s], got %v", addr.Hex(), accounts)
	}
}

func TestSendTransactionCarriesFromAndValue(t *testing.T) {
	fake := nodetest.New()
	defer fake.Close()
	client := fake.Client(node.Options{})
	defer client.Close()

	ctx := context.Background()
	from := fake.AddAccount("pw")
	if err := client.UnlockAccount(ctx, from, "pw", 0); err != nil {
		t.Fatalf("UnlockAccount failed: %v", err)
	}
	to := common.HexToAddress("0x145e9b1Bff2bdD3e64954eb27F46e8F7B0E20a30")

	hash, err := client.SendTransaction(ctx, node.TxArgs{
		From:  &from,
		To:    &to,
		Value: (*hexutil.Big)(big.NewInt(1000)),
		Data:  hexutil.Bytes{0x01, 0x02, 0x03, 0x04},
	})
	if err != nil {
		t.Fatalf("SendTransaction failed: %v", err)
	}
	if hash == (common.Hash{}) {
		t.Fatal("expected non-zero hash")
	}

	sent := fake.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected one transaction, got %d", len(sent))
	}
	if *sent[0].From != from || *sent[0].To != to {
		t.Fatalf("unexpected from/to: %+v", sent[0])
	}
	if sent[0].Value.ToInt().Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected value 1000, got %s", sent[0].Value.ToInt())
	}
}

func TestRevertReasonDecodedFromErrorData(t *testing.T) {
	fake := nodetest.New()
	defer fake.Close()
	client := fake.Client(node.Options{})
	defer client.Close()

	fake.RevertWith("Not owner")
	_, err := client.Call(context.Background(), node.TxArgs{Data: hexutil.Bytes{0xaa, 0xbb, 0xcc, 0xdd}})
	if err == nil {
		t.Fatal("expected revert")
	}

	reason, ok := node.RevertReason(err)
	if !ok {
		t.Fatalf("expected revert classification, got %v", err)
	}
	if reason != "Not owner" {
		t.Fatalf("expected reason %q, got %q", "Not owner", reason)
	}
}

func TestRevertReasonFromMessageOnly(t *testing.T) {
	reason, ok := node.RevertReason(errors.New("execution reverted: Estate not found"))
	if !ok || reason != "Estate not found" {
		t.Fatalf("unexpected result %q %v", reason, ok)
	}

	if _, ok := node.RevertReason(errors.New("connection refused")); ok {
		t.Fatal("transport error must not be a revert")
	}
	if _, ok := node.RevertReason(nil); ok {
		t.Fatal("nil must not be a revert")
	}
}

func TestObserverSeesEveryCall(t *testing.T) {
	fake := nodetest.New()
	defer fake.Close()

	var methods []string
	client := fake.Client(node.Options{
		RequestTimeout: time.Second,
		Observer: func(method string, _ time.Duration, _ error) {
			methods = append(methods, method)
		},
	})
	defer client.Close()

	id, err := client.ChainID(context.Background())
	if err != nil {
		t.Fatalf("ChainID failed: %v", err)
	}
	if id.Int64() != nodetest.ChainID {
		t.Fatalf("expected chain id %d, got %s", nodetest.ChainID, id)
	}
	if len(methods) != 1 || methods[0] != "eth_chainId" {
		t.Fatalf("unexpected observed methods: %v", methods)
	}
}

func TestNewClientRejectsNil(t *testing.T) {
	if _, err := node.NewClient(nil, node.Options{}); !errors.Is(err, node.ErrNilClient) {
		t.Fatalf("expected ErrNilClient, got %v", err)
	}
}
