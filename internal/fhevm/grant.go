package fhevm

import (
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DecryptionGrant is a signed, time-boxed authorization for one user to decrypt handles of a set of contracts.
type DecryptionGrant struct {
	ID                string
	UserAddress       common.Address
	ContractAddresses []common.Address
	StartTimestamp    int64
	DurationDays      int
	Keypair           *Keypair
	Signature         []byte
}

// ExpiresAt returns the end of the validity window.
func (g *DecryptionGrant) ExpiresAt() time.Time {
	return time.Unix(g.StartTimestamp, 0).Add(time.Duration(g.DurationDays) * 24 * time.Hour)
}

// ValidAt reports whether `t` lies inside the validity window.
func (g *DecryptionGrant) ValidAt(t time.Time) bool {
	start := time.Unix(g.StartTimestamp, 0)
	return !t.Before(start) && t.Before(g.ExpiresAt())
}

// Covers reports whether the grant was issued for `user` and exactly the contracts in `contracts` (order ignored).
func (g *DecryptionGrant) Covers(user common.Address, contracts []common.Address) bool {
	if g.UserAddress != user || len(g.ContractAddresses) != len(contracts) {
		return false
	}

	return ScopeKey(g.ContractAddresses) == ScopeKey(contracts)
}

// ScopeKey returns an order-independent key for a set of contract addresses.
func ScopeKey(contracts []common.Address) string {
	keys := make([]string, 0, len(contracts))
	for _, c := range contracts {
		keys = append(keys, strings.ToLower(c.Hex()))
	}
	sort.Strings(keys)

	return strings.Join(keys, ",")
}

