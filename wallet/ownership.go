package wallet

import "sort"

// Ownership answers "is this address mine". Implementations are point-in-time
// snapshots: the answer for a given address never changes over the lifetime of
// one value, so a single snapshot passed through a build or classification run
// yields consistent results even if the wallet set changes concurrently.
type Ownership interface {
	Owns(address string) bool
}

// AddressSet is an immutable Ownership snapshot over a set of addresses.
type AddressSet struct {
	addrs map[string]struct{}
}

var _ Ownership = (*AddressSet)(nil)

// NewAddressSet builds a snapshot from the given addresses. Duplicates and
// empty strings are dropped.
func NewAddressSet(addresses ...string) *AddressSet {
	s := &AddressSet{addrs: make(map[string]struct{}, len(addresses))}
	for _, a := range addresses {
		if a == "" {
			continue
		}
		s.addrs[a] = struct{}{}
	}
	return s
}

// Owns reports whether address is part of the snapshot.
func (s *AddressSet) Owns(address string) bool {
	if s == nil {
		return false
	}
	_, ok := s.addrs[address]
	return ok
}

// Addresses returns the snapshot's addresses in sorted order.
func (s *AddressSet) Addresses() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.addrs))
	for a := range s.addrs {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of addresses in the snapshot.
func (s *AddressSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.addrs)
}
