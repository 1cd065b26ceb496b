package semantic

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"
)

var ErrInvalidReference = errors.New("invalid reference")

// ParseLiteral parses the textual form of a literal value: true, false, verdicts, omit, "charstring",
// 'bits'B, 'hex'H, 'octets'O, integers, floats, infinity and not_a_number.
// Identifiers are not literals, ok is false for them.
func ParseLiteral(text string) (v Value, ok bool) {
	switch text {
	case "true", "false":
		return NewBool(text == "true"), true
	case "omit":
		return NewOmit(), true
	case "infinity":
		return NewFloat(math.Inf(1)), true
	case "-infinity":
		return NewFloat(math.Inf(-1)), true
	case "not_a_number":
		return NewFloat(math.NaN()), true
	}
	if verdict, ok := ParseVerdict(text); ok {
		return NewVerdict(verdict), true
	}

	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		return NewCharstring(strings.ReplaceAll(text[1:len(text)-1], `""`, `"`)), true
	}

	if len(text) >= 3 && text[0] == '\'' && text[len(text)-2] == '\'' {
		digits := text[1 : len(text)-2]
		switch text[len(text)-1] {
		case 'B':
			if strings.Trim(digits, "01") == "" {
				return NewBitstring(digits), true
			}
		case 'H':
			if isHexDigits(digits) {
				return NewHexstring(digits), true
			}
		case 'O':
			if isHexDigits(digits) && len(digits)%2 == 0 {
				return NewOctetstring(digits), true
			}
		}
		return nil, false
	}

	if i, ok := new(big.Int).SetString(text, 10); ok {
		return NewBigInt(i), true
	}
	if strings.ContainsAny(text, ".eE") {
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return NewFloat(f), true
		}
	}
	return nil, false
}

func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		letter := 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
		if i == 0 && !letter {
			return false
		}
		if !letter && c != '_' && !('0' <= c && c <= '9') {
			return false
		}
	}
	return true
}

// ParseReference parses a reference such as c1, r.field or l[2].x, indexes are integer literals.
func ParseReference(text string) (*Reference, error) {
	end := strings.IndexAny(text, ".[")
	if end < 0 {
		end = len(text)
	}
	if !IsIdentifier(text[:end]) {
		return nil, ErrInvalidReference
	}
	ref := NewRef(text[:end])

	rest := text[end:]
	for rest != "" {
		switch rest[0] {
		case '.':
			end := strings.IndexAny(rest[1:], ".[")
			if end < 0 {
				end = len(rest) - 1
			}
			field := rest[1 : end+1]
			if !IsIdentifier(field) {
				return nil, ErrInvalidReference
			}
			ref.Subrefs = append(ref.Subrefs, FieldSubref(field))
			rest = rest[end+1:]
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, ErrInvalidReference
			}
			i, ok := new(big.Int).SetString(strings.TrimSpace(rest[1:end]), 10)
			if !ok {
				return nil, ErrInvalidReference
			}
			ref.Subrefs = append(ref.Subrefs, IndexSubref(NewBigInt(i)))
			rest = rest[end+1:]
		default:
			return nil, ErrInvalidReference
		}
	}
	return ref, nil
}
