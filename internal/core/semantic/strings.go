package semantic

import (
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// A Bitstring stores its bits in a bitset, index 0 is the leftmost bit.
type Bitstring struct {
	valueBase
	bits *bitset.BitSet
	n    int
}

// NewBitstring creates a bitstring from a string of '0' and '1' characters, other characters are read as '0'.
func NewBitstring(s string) *Bitstring {
	b := &Bitstring{bits: bitset.New(uint(len(s))), n: len(s)}
	for i := 0; i < len(s); i++ {
		if s[i] == '1' {
			b.bits.Set(uint(i))
		}
	}
	return b
}

func newBitstringFromSet(bits *bitset.BitSet, n int) *Bitstring {
	return &Bitstring{bits: bits, n: n}
}

func (*Bitstring) Kind() ValueKind { return BitstringKind }

func (b *Bitstring) Len() int {
	return b.n
}

func (b *Bitstring) Bit(i int) bool {
	return b.bits.Test(uint(i))
}

func (b *Bitstring) String() string {
	var sb strings.Builder
	sb.Grow(b.n)
	for i := 0; i < b.n; i++ {
		if b.bits.Test(uint(i)) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Equal compares the first Len() bits, the capacity of the underlying sets may differ.
func (b *Bitstring) Equal(other *Bitstring) bool {
	if b.n != other.n {
		return false
	}
	for i := 0; i < b.n; i++ {
		if b.Bit(i) != other.Bit(i) {
			return false
		}
	}
	return true
}

const HEX_DIGITS = "0123456789ABCDEF"

func hexDigitValue(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}

func isHexDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if _, ok := hexDigitValue(s[i]); !ok {
			return false
		}
	}
	return true
}

// hexToBits expands each hex digit into its 4-bit nibble, most significant bit first.
func hexToBits(digits string) string {
	var sb strings.Builder
	sb.Grow(4 * len(digits))
	for i := 0; i < len(digits); i++ {
		d, _ := hexDigitValue(digits[i])
		for shift := 3; shift >= 0; shift-- {
			if d&(1<<shift) != 0 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}
	return sb.String()
}

// bitsToHex left-pads the bits with zeros to a multiple of 4 and packs them into hex digits.
func bitsToHex(bits string) string {
	if pad := len(bits) % 4; pad != 0 {
		bits = strings.Repeat("0", 4-pad) + bits
	}
	var sb strings.Builder
	sb.Grow(len(bits) / 4)
	for i := 0; i < len(bits); i += 4 {
		d := 0
		for _, c := range bits[i : i+4] {
			d <<= 1
			if c == '1' {
				d |= 1
			}
		}
		sb.WriteByte(HEX_DIGITS[d])
	}
	return sb.String()
}

func leftPad(s string, pad byte, multiple int) string {
	if rem := len(s) % multiple; rem != 0 {
		return strings.Repeat(string(pad), multiple-rem) + s
	}
	return s
}

// stringUnits splits a string value into its characters: bits, hex digits, octets (2 digits), bytes or runes.
func stringUnits(v Value) ([]string, bool) {
	switch val := v.(type) {
	case *Bitstring:
		s := val.String()
		return splitEvery(s, 1), true
	case *Hexstring:
		return splitEvery(val.Digits, 1), true
	case *Octetstring:
		return splitEvery(val.Digits, 2), true
	case *Charstring:
		return splitEvery(val.V, 1), true
	case *UniversalCharstring:
		units := make([]string, len(val.V))
		for i, r := range val.V {
			units[i] = string(r)
		}
		return units, true
	}
	return nil, false
}

func splitEvery(s string, n int) []string {
	units := make([]string, 0, len(s)/n)
	for i := 0; i+n <= len(s); i += n {
		units = append(units, s[i:i+n])
	}
	return units
}

// stringFromUnits creates a value of the same kind as model from units.
func stringFromUnits(model Value, units []string) Value {
	joined := strings.Join(units, "")
	switch model.(type) {
	case *Bitstring:
		return NewBitstring(joined)
	case *Hexstring:
		return NewHexstring(joined)
	case *Octetstring:
		return NewOctetstring(joined)
	case *Charstring:
		return NewCharstring(joined)
	case *UniversalCharstring:
		return NewUniversalCharstring(joined)
	}
	return nil
}

// zeroUnit returns the unit used to fill shifted binary strings.
func zeroUnit(v Value) string {
	if _, ok := v.(*Octetstring); ok {
		return "00"
	}
	return "0"
}

// unitLength returns the number of characters or elements of a string or sequence value.
func unitLength(v Value) (int, bool) {
	switch val := v.(type) {
	case *Bitstring:
		return val.n, true
	case *Hexstring:
		return len(val.Digits), true
	case *Octetstring:
		return val.Len(), true
	case *Charstring:
		return len(val.V), true
	case *UniversalCharstring:
		return len(val.V), true
	case *Sequence:
		return len(val.Elements), true
	}
	return 0, false
}

func rotateSlice[T any](s []T, left int) []T {
	n := len(s)
	if n == 0 {
		return s
	}
	k := ((left % n) + n) % n
	result := make([]T, 0, n)
	result = append(result, s[k:]...)
	return append(result, s[:k]...)
}

func replaceSlice[T any](s []T, start, length int, repl []T) []T {
	result := make([]T, 0, len(s)-length+len(repl))
	result = append(result, s[:start]...)
	result = append(result, repl...)
	return append(result, s[start+length:]...)
}
