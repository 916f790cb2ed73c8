package serialize

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100_000
	saltSize         = 16
	nonceSize        = 12
)

// WrapEncryption layers symmetric, password-derived encryption around an
// output sink. If encryption is requested and the password is absent, the
// job must fail before work begins; that is enforced by the caller never
// reaching this function without a non-empty password. A random salt is
// written first so decryption can re-derive the same key; the stream is
// AES-256-GCM sealed in one chunk-framed record per Write call.
func WrapEncryption(w io.Writer, password string) (io.WriteCloser, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	if _, err := w.Write(salt); err != nil {
		return nil, fmt.Errorf("writing salt header: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("building cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("building GCM mode: %w", err)
	}

	return &encryptWriter{w: w, gcm: gcm}, nil
}

type encryptWriter struct {
	w   io.Writer
	gcm cipher.AEAD
	seq uint64
}

// Write seals p as one GCM record framed with a 4-byte big-endian length
// prefix, so the reader side can delimit records without re-parsing JSON.
func (e *encryptWriter) Write(p []byte) (int, error) {
	nonce := make([]byte, nonceSize)
	binaryPutUint64(nonce, e.seq)
	e.seq++

	sealed := e.gcm.Seal(nil, nonce, p, nil)
	length := len(sealed)
	header := []byte{byte(length >> 24), byte(length >> 16), byte(length >> 8), byte(length)}
	if _, err := e.w.Write(header); err != nil {
		return 0, err
	}
	if _, err := e.w.Write(sealed); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (e *encryptWriter) Close() error {
	if closer, ok := e.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func binaryPutUint64(b []byte, v uint64) {
	for i := 0; i < len(b) && i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}
