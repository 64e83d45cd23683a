package vault

import (
	"strings"
	"testing"
)

var memoKey = []byte("0123456789abcdef0123456789abcdef")

func TestEncryptDecryptMemo(t *testing.T) {
	memo := "DHL tracking 4417-8812, vault bay 3"

	sealed, err := Encrypt(memo, memoKey)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if strings.Contains(sealed, memo) {
		t.Fatal("ciphertext leaks plaintext")
	}

	opened, err := Decrypt(sealed, memoKey)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if opened != memo {
		t.Errorf("expected %q, got %q", memo, opened)
	}
}

func TestEncryptNonceVaries(t *testing.T) {
	a, err := Encrypt("same memo", memoKey)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encrypt("same memo", memoKey)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two encryptions of the same memo must differ")
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	other := []byte("fedcba9876543210fedcba9876543210")

	sealed, err := Encrypt("custodian handoff ref 29", memoKey)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decrypt(sealed, other); err == nil {
		t.Fatal("decryption with the wrong key must fail")
	}
}

func TestInvalidKeySize(t *testing.T) {
	short := []byte("shortkey")

	if _, err := Encrypt("x", short); err == nil {
		t.Fatal("encryption should fail with an invalid key size")
	}
	if _, err := Decrypt("0123456789abcdef", short); err == nil {
		t.Fatal("decryption should fail with an invalid key size")
	}
}

func TestDecryptMalformedInput(t *testing.T) {
	if _, err := Decrypt("not-hex", memoKey); err == nil {
		t.Fatal("malformed hex must fail")
	}
	// Shorter than a GCM nonce.
	if _, err := Decrypt("abcdef", memoKey); err == nil {
		t.Fatal("truncated ciphertext must fail")
	}
}

func TestParseKey(t *testing.T) {
	key, err := ParseKey("00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff")
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if len(key) != 32 {
		t.Fatalf("expected 32 bytes, got %d", len(key))
	}

	if _, err := ParseKey("abcd"); err == nil {
		t.Fatal("short key must be rejected")
	}
	if _, err := ParseKey("zz"); err == nil {
		t.Fatal("non-hex key must be rejected")
	}
}

func TestGenerateSelfSignedCert(t *testing.T) {
	cert, err := GenerateSelfSignedCert()
	if err != nil {
		t.Fatalf("GenerateSelfSignedCert: %v", err)
	}
	if len(cert.Certificate) == 0 {
		t.Fatal("generated certificate is empty")
	}
	if cert.PrivateKey == nil {
		t.Fatal("generated private key is nil")
	}
}
