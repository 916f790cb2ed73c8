package serialize

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"testing"

	"golang.org/x/crypto/pbkdf2"
)

func TestWrapEncryptionWritesSaltHeader(t *testing.T) {
	var buf bytes.Buffer
	w, err := WrapEncryption(&buf, "correct horse battery staple")
	if err != nil {
		t.Fatalf("WrapEncryption failed: %v", err)
	}
	if buf.Len() != saltSize {
		t.Fatalf("after WrapEncryption, buf.Len() = %d, want %d (salt only written so far)", buf.Len(), saltSize)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestEncryptWriteDecryptsWithSamePassword(t *testing.T) {
	var buf bytes.Buffer
	password := "super-secret"
	w, err := WrapEncryption(&buf, password)
	if err != nil {
		t.Fatalf("WrapEncryption failed: %v", err)
	}
	plaintext := []byte(`{"patient_id":"p1"}`)
	if _, err := w.Write(plaintext); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out := buf.Bytes()
	salt := out[:saltSize]
	rest := out[saltSize:]

	if len(rest) < 4 {
		t.Fatal("ciphertext too short to contain a length header")
	}
	length := int(rest[0])<<24 | int(rest[1])<<16 | int(rest[2])<<8 | int(rest[3])
	sealed := rest[4 : 4+length]

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("aes.NewCipher failed: %v", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		t.Fatalf("cipher.NewGCM failed: %v", err)
	}
	nonce := make([]byte, nonceSize)
	decrypted, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		t.Fatalf("gcm.Open failed: %v", err)
	}
	if string(decrypted) != string(plaintext) {
		t.Fatalf("decrypted = %q, want %q", decrypted, plaintext)
	}
}

func TestWrapEncryptionDifferentSaltsPerCall(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	w1, err := WrapEncryption(&buf1, "pw")
	if err != nil {
		t.Fatalf("WrapEncryption failed: %v", err)
	}
	w2, err := WrapEncryption(&buf2, "pw")
	if err != nil {
		t.Fatalf("WrapEncryption failed: %v", err)
	}
	_ = w1
	_ = w2
	if bytes.Equal(buf1.Bytes()[:saltSize], buf2.Bytes()[:saltSize]) {
		t.Fatal("two WrapEncryption calls produced identical salts")
	}
}
