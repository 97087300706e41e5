package manifest

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

// sign computes the RSA-SHA256 signature over manifestBytes (which must
// be the exact bytes transmitted on the wire, per spec.md §4.7 step 4 and
// §9) and encodes it as the Structured-Headers-style dictionary the Expo
// Updates client expects: `sig="<base64>", keyid="main"`.
func sign(manifestBytes []byte, privateKeyPEM []byte) (string, error) {
	block, _ := pem.Decode(privateKeyPEM)
	if block == nil {
		return "", errors.New("manifest: invalid PEM block for application signing key")
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return "", fmt.Errorf("manifest: parsing signing key: %w", err)
	}

	digest := sha256.Sum256(manifestBytes)

	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("manifest: signing: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(signature)

	return fmt.Sprintf(`sig="%s", keyid="main"`, encoded), nil
}
