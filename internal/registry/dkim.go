package registry

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

const dkimKeyBits = 2048

// generateDKIMKeyPair creates an RSA key pair for DKIM signing. The public
// key comes back base64-encoded (SubjectPublicKeyInfo) ready to drop into
// the p= tag of the DKIM TXT record; the private key as PEM for storage.
func generateDKIMKeyPair() (publicB64, privatePEM string, err error) {
	key, err := rsa.GenerateKey(rand.Reader, dkimKeyBits)
	if err != nil {
		return "", "", fmt.Errorf("generate DKIM key: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("marshal DKIM public key: %w", err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	return base64.StdEncoding.EncodeToString(pubDER), string(privPEM), nil
}
