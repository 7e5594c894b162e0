package crypto

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func testKeys() ([]byte, []byte) {
	return bytes.Repeat([]byte{1}, KeySize), bytes.Repeat([]byte{2}, KeySize)
}

func TestEncryptDecrypt(t *testing.T) {
	ek, ik := testKeys()
	c, err := NewCipher(ek, ik)
	if err != nil {
		t.Fatal(err)
	}
	sealed, err := c.Encrypt("Run a marathon")
	if err != nil {
		t.Fatal(err)
	}
	if sealed == "Run a marathon" {
		t.Fatal("plaintext was not sealed")
	}
	again, _ := c.Encrypt("Run a marathon")
	if again == sealed {
		t.Fatal("nonce reuse: identical ciphertexts")
	}
	plain, err := c.Decrypt(sealed)
	if err != nil || plain != "Run a marathon" {
		t.Fatalf("Decrypt = %q, %v", plain, err)
	}
}

func TestBlindIndexDeterministic(t *testing.T) {
	ek, ik := testKeys()
	c, _ := NewCipher(ek, ik)
	if c.BlindIndex("learn rust") != c.BlindIndex("learn rust") {
		t.Fatal("blind index not deterministic")
	}
	if c.BlindIndex("learn rust") == c.BlindIndex("learn go") {
		t.Fatal("blind index collision")
	}
	if c.BlindIndex("") != "" {
		t.Fatal("empty input should index to empty")
	}
}

func TestKeyValidation(t *testing.T) {
	if _, err := NewCipher([]byte("short"), make([]byte, KeySize)); err == nil {
		t.Fatal("expected short key error")
	}
	if _, err := DecodeKey(base64.StdEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Fatal("expected decode length error")
	}
	if _, err := DecodeKey(base64.StdEncoding.EncodeToString(make([]byte, KeySize))); err != nil {
		t.Fatal(err)
	}
}
