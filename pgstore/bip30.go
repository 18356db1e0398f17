package pgstore

import (
	"sync"

	"github.com/bitcoinchain/blockimporter/bitcoin"
)

// conflictTxIDs are the two historical BIP30 duplicate coinbase txids: each
// was mined twice, in two different blocks, with an identical txid. The
// second occurrence of each is suppressed so that each txid is loaded into
// transactions only once.
var conflictTxIDs = mustConflictSet(
	"e3bf3d07d4b0375638d5f1db5255fe07ba2c4cb067cd81b84ee974b6585fb468",
	"d5d27987d2a3dfc724e359870c6644b40e497bdc0589a033220fe15429d88599",
)

func mustConflictSet(hexTxIDs ...string) map[bitcoin.Hash32]struct{} {
	result := make(map[bitcoin.Hash32]struct{}, len(hexTxIDs))
	for _, h := range hexTxIDs {
		txid, err := bitcoin.NewHash32FromStr(h)
		if err != nil {
			panic(err)
		}
		result[*txid] = struct{}{}
	}
	return result
}

// bip30Tracker records which of the two known BIP30 conflict txids have
// already been inserted, across concurrent LoadBlock calls, so only the
// first occurrence of each is written.
type bip30Tracker struct {
	mutex sync.Mutex
	seen  map[bitcoin.Hash32]bool
}

func newBIP30Tracker() *bip30Tracker {
	return &bip30Tracker{seen: make(map[bitcoin.Hash32]bool)}
}

// suppress reports whether txid is a known BIP30 conflict that has already
// been inserted once. The first call for a given conflict txid returns
// false and marks it seen; every call after that returns true.
func (t *bip30Tracker) suppress(txid bitcoin.Hash32) bool {
	if _, isConflict := conflictTxIDs[txid]; !isConflict {
		return false
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.seen[txid] {
		return true
	}
	t.seen[txid] = true
	return false
}
