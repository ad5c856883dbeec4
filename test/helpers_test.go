//go:build integration
// +build integration

package test

import (
	"strings"
	"time"

	"github.com/MrEthical07/goEstate/session"
	"github.com/ethereum/go-ethereum/common"
)

func makeSession(sessionID string, addr common.Address) *session.Session {
	now := time.Now()
	return &session.Session{
		SessionID:     sessionID,
		Address:       addr,
		IPHash:        hashByte(0x01),
		UserAgentHash: hashByte(0x02),
		CreatedAt:     now.Unix(),
		ExpiresAt:     now.Add(time.Hour).Unix(),
	}
}

func hashByte(b byte) [32]byte {
	var out [32]byte
	for i := 0; i < len(out); i++ {
		out[i] = b
	}
	return out
}

func splitAddrs(s string) []string {
	var addrs []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			addrs = append(addrs, a)
		}
	}
	return addrs
}
