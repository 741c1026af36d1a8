package tx

import "math/big"

// encodeDER encodes an ECDSA (r, s) pair as a DER SEQUENCE of two INTEGERs:
//
//	0x30 <len> 0x02 <rlen> r 0x02 <slen> s
//
// The signer appends the sighash-type byte after this encoding.
func encodeDER(r, s *big.Int) []byte {
	rb := canonicalizeInt(r)
	sb := canonicalizeInt(s)

	sig := make([]byte, 0, 6+len(rb)+len(sb))
	sig = append(sig, 0x30, byte(4+len(rb)+len(sb)))
	sig = append(sig, 0x02, byte(len(rb)))
	sig = append(sig, rb...)
	sig = append(sig, 0x02, byte(len(sb)))
	sig = append(sig, sb...)
	return sig
}

// canonicalizeInt returns the minimal big-endian encoding of v for DER:
// leading zero bytes stripped but at least one byte kept, with a 0x00 prefix
// restored when the leading byte's high bit is set, so the INTEGER stays
// non-negative.
func canonicalizeInt(v *big.Int) []byte {
	b := v.Bytes()
	if len(b) == 0 {
		b = []byte{0x00}
	}
	if b[0]&0x80 != 0 {
		padded := make([]byte, len(b)+1)
		copy(padded[1:], b)
		b = padded
	}
	return b
}
