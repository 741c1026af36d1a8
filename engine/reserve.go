package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/finchwallet/libfinch-go/coinselect"
)

// reservationSet tracks outpoints held by in-flight sends so that two
// concurrent builds never spend the same output. Entries expire after the
// configured TTL, so a build that dies without releasing cannot strand its
// inputs forever.
type reservationSet struct {
	mu    sync.Mutex
	ttl   time.Duration
	cache *ttlcache.Cache[string, string] // outpoint -> reserving address
}

func newReservationSet(ttl time.Duration) *reservationSet {
	r := &reservationSet{
		ttl:   ttl,
		cache: ttlcache.New[string, string](),
	}
	go r.cache.Start()
	return r
}

func (r *reservationSet) stop() {
	r.cache.Stop()
}

// available returns the subset of utxos not currently reserved.
func (r *reservationSet) available(utxos []coinselect.UTXO) []coinselect.UTXO {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]coinselect.UTXO, 0, len(utxos))
	for _, u := range utxos {
		if r.cache.Has(u.Outpoint()) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// claim reserves every outpoint in utxos for owner. It is all-or-nothing:
// if any outpoint is already held the claim fails and nothing is reserved.
func (r *reservationSet) claim(utxos []coinselect.UTXO, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range utxos {
		if r.cache.Has(utxos[i].Outpoint()) {
			return fmt.Errorf("%w: %s", ErrUTXOReserved, utxos[i].Outpoint())
		}
	}
	for i := range utxos {
		r.cache.Set(utxos[i].Outpoint(), owner, r.ttl)
	}
	return nil
}

// release frees the given outpoints. Releasing an outpoint that is not held
// is a no-op.
func (r *reservationSet) release(utxos []coinselect.UTXO) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range utxos {
		r.cache.Delete(utxos[i].Outpoint())
	}
}

// held reports whether a single outpoint is currently reserved.
func (r *reservationSet) held(outpoint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Has(outpoint)
}
