package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// DefaultXORKey is the chained-XOR key used by stock v12 BMD files.
var DefaultXORKey = [16]byte{
	0xD1, 0x73, 0x52, 0xF6, 0xD2, 0x9A, 0xCB, 0x27,
	0x3E, 0xAF, 0x59, 0x31, 0x37, 0xB3, 0xE7, 0xA2,
}

// Keys carries the BMD decryption keys. LEA has no built-in default; v15
// files can only be read when HasLEA is set.
type Keys struct {
	XOR    [16]byte
	LEA    [32]byte
	HasLEA bool
}

func DefaultKeys() Keys {
	return Keys{XOR: DefaultXORKey}
}

// ParseKeys builds Keys from hex strings. Empty strings keep the defaults.
func ParseKeys(xorHex, leaHex string) (Keys, error) {
	k := DefaultKeys()
	if xorHex != "" {
		if err := decodeHexKey(xorHex, k.XOR[:]); err != nil {
			return Keys{}, fmt.Errorf("crypto: xor key: %w", err)
		}
	}
	if leaHex != "" {
		if err := decodeHexKey(leaHex, k.LEA[:]); err != nil {
			return Keys{}, fmt.Errorf("crypto: lea key: %w", err)
		}
		k.HasLEA = true
	}
	return k, nil
}

func decodeHexKey(s string, dst []byte) error {
	s = strings.NewReplacer(" ", "", ":", "", "0x", "").Replace(s)
	raw, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("want %d bytes, got %d", len(dst), len(raw))
	}
	copy(dst, raw)
	return nil
}
