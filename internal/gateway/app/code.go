package app

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
)

const codeModulus = 1_000_000 // 6 decimal digits

// generateCode draws a uniformly random uint32 from a CSPRNG and reduces it
// mod 1_000_000, per the spec's literal wording. This is deliberately a
// plain modulo draw rather than big.Int rejection sampling: the resulting
// bias (about 1 part in 4294, since 2^32 is not a multiple of 10^6) is
// accepted explicitly given the CSPRNG's draw domain.
func generateCode() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	n := binary.BigEndian.Uint32(buf[:]) % codeModulus
	return fmt.Sprintf("%06d", n), nil
}

// codesEqual compares two verification codes in constant time with respect
// to length, after zero-padding both to codeDigits width, so that a
// shorter/longer candidate never leaks timing information relative to the
// stored active code.
func codesEqual(candidate, active string) bool {
	const codeDigits = 6
	a := padCode(candidate, codeDigits)
	b := padCode(active, codeDigits)
	if len(candidate) != codeDigits {
		// Still perform a constant-time compare so a malformed candidate
		// takes the same code path (a longer candidate is not padded, so
		// the buffers differ in length), but the result can never be a
		// match.
		subtle.ConstantTimeCompare([]byte(a), []byte(b))
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// padCode left-pads code with zeros to width. Codes longer than width are
// returned unmodified (only reached via the malformed-candidate branch
// above, which never reports equality).
func padCode(code string, width int) string {
	if len(code) >= width {
		return code
	}
	padded := make([]byte, width)
	offset := width - len(code)
	for i := 0; i < offset; i++ {
		padded[i] = '0'
	}
	copy(padded[offset:], code)
	return string(padded)
}
