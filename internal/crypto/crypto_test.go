package crypto

import (
	"bytes"
	"testing"
)

func TestXORRoundTrip(t *testing.T) {
	plain := []byte("BMD payload with enough bytes to wrap the key twice")
	enc := EncryptXOR(plain, DefaultXORKey)
	if bytes.Equal(enc, plain) {
		t.Fatal("ciphertext should differ from plaintext")
	}
	if got := DecryptXOR(enc, DefaultXORKey); !bytes.Equal(got, plain) {
		t.Errorf("decrypted bytes should be %q but were %q", plain, got)
	}
}

func TestLEARoundTrip(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i * 7)
	}
	plain := make([]byte, 64)
	for i := range plain {
		plain[i] = byte(i)
	}

	enc, err := EncryptLEA(plain, key)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := DecryptLEA(enc, key)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dec, plain) {
		t.Errorf("decrypted bytes should be % x but were % x", plain, dec)
	}

	if _, err := DecryptLEA(make([]byte, 15), key); err == nil {
		t.Error("unaligned input should fail")
	}
}

func TestParseKeys(t *testing.T) {
	k, err := ParseKeys("", "")
	if err != nil {
		t.Fatal(err)
	}
	if k.XOR != DefaultXORKey || k.HasLEA {
		t.Errorf("empty strings should keep defaults, got %+v", k)
	}

	lea := "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	k, err = ParseKeys("0x000102030405060708090a0b0c0d0e0f", lea)
	if err != nil {
		t.Fatal(err)
	}
	if k.XOR[15] != 0x0f || !k.HasLEA || k.LEA[1] != 0x11 {
		t.Errorf("keys not parsed: %+v", k)
	}

	if _, err := ParseKeys("abcd", ""); err == nil {
		t.Error("short xor key should fail")
	}
	if _, err := ParseKeys("", "zz"); err == nil {
		t.Error("bad hex should fail")
	}
}
