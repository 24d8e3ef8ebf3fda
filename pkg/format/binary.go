package format

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/aretw0/worldkit/pkg/core"
)

func encodeHex(raw []byte) string {
	return hex.EncodeToString(raw)
}

// decodeHex accepts any whitespace between digit pairs.
func decodeHex(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidValue, err)
	}
	return b, nil
}

// encodeBits renders each byte as an 8 digit group, groups separated by a space.
func encodeBits(raw []byte) string {
	var sb strings.Builder
	for i, b := range raw {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%08b", b)
	}
	return sb.String()
}

func decodeBits(s string) ([]byte, error) {
	out := []byte{}
	for _, field := range strings.Fields(s) {
		if len(field)%8 != 0 {
			return nil, fmt.Errorf("%w: bit group %q is not a multiple of 8 digits", core.ErrInvalidValue, field)
		}
		for i := 0; i < len(field); i += 8 {
			n, err := strconv.ParseUint(field[i:i+8], 2, 8)
			if err != nil {
				return nil, fmt.Errorf("%w: bit group %q", core.ErrInvalidValue, field[i:i+8])
			}
			out = append(out, byte(n))
		}
	}
	return out, nil
}

func decodeInt(raw []byte, o core.IntOptions) (*big.Int, error) {
	if o.Bytes > 0 && len(raw) != o.Bytes {
		return nil, fmt.Errorf("%w: want %d byte integer, got %d bytes", core.ErrInvalidValue, o.Bytes, len(raw))
	}
	be := make([]byte, len(raw))
	copy(be, raw)
	if !o.BigEndian {
		reverse(be)
	}
	n := new(big.Int).SetBytes(be)
	if o.Signed && len(be) > 0 && be[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(8*len(be))))
	}
	return n, nil
}

func encodeInt(n *big.Int, o core.IntOptions) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: nil integer", core.ErrInvalidValue)
	}
	if o.Bytes <= 0 {
		return nil, fmt.Errorf("%w: integer width not set", core.ErrInvalidValue)
	}
	bits := uint(8 * o.Bytes)
	span := new(big.Int).Lsh(big.NewInt(1), bits)
	lo, hi := big.NewInt(0), span
	if o.Signed {
		half := new(big.Int).Rsh(span, 1)
		lo, hi = new(big.Int).Neg(half), half
	}
	if n.Cmp(lo) < 0 || n.Cmp(hi) >= 0 {
		return nil, fmt.Errorf("%w: %s does not fit in %d bytes", core.ErrInvalidValue, n, o.Bytes)
	}
	u := new(big.Int).Set(n)
	if u.Sign() < 0 {
		u.Add(u, span)
	}
	out := u.FillBytes(make([]byte, o.Bytes))
	if !o.BigEndian {
		reverse(out)
	}
	return out, nil
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
