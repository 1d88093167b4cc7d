// Package keys loads the RSA signing key used to authenticate against the
// enable banking API.
//
// The control panel hands out keys in either PKCS#8 ("BEGIN PRIVATE KEY") or
// PKCS#1 ("BEGIN RSA PRIVATE KEY") PEM encoding. Both are accepted; PKCS#1
// bodies are wrapped into a PKCS#8 PrivateKeyInfo structure before import so
// a single parse path handles every key.
package keys

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"fmt"
)

// ErrKeyFormat is returned when the PEM envelope or its DER body cannot be
// decoded.
var ErrKeyFormat = errors.New("unrecognized private key format")

// ErrInvalidKey is returned when the key decodes but is not a usable RSA
// signing key.
var ErrInvalidKey = errors.New("invalid rsa private key")

const (
	pemTypePKCS8 = "PRIVATE KEY"
	pemTypePKCS1 = "RSA PRIVATE KEY"
)

// rsaEncryption, RFC 8017.
var oidRSAEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}

type algorithmIdentifier struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.RawValue
}

// privateKeyInfo is the PKCS#8 envelope from RFC 5208: version INTEGER,
// AlgorithmIdentifier, OCTET STRING holding the PKCS#1 key bytes.
type privateKeyInfo struct {
	Version    int
	Algorithm  algorithmIdentifier
	PrivateKey []byte
}

// WrapPKCS1 wraps raw PKCS#1 DER into a PKCS#8 PrivateKeyInfo structure.
// The result round-trips through x509.ParsePKCS8PrivateKey to the same
// modulus and exponent as direct PKCS#1 parsing.
func WrapPKCS1(der []byte) ([]byte, error) {
	if len(der) == 0 {
		return nil, fmt.Errorf("%w: empty pkcs1 body", ErrKeyFormat)
	}
	info := privateKeyInfo{
		Version: 0,
		Algorithm: algorithmIdentifier{
			Algorithm:  oidRSAEncryption,
			Parameters: asn1.NullRawValue,
		},
		PrivateKey: der,
	}
	return asn1.Marshal(info)
}

// Load decodes a PEM-encoded RSA private key. PKCS#8 bodies are imported
// as-is; PKCS#1 bodies are wrapped first. Any other PEM type fails with
// ErrKeyFormat.
func Load(pemText []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemText)
	if block == nil {
		return nil, fmt.Errorf("%w: no pem block found", ErrKeyFormat)
	}

	var (
		der []byte
		err error
	)
	switch block.Type {
	case pemTypePKCS8:
		der = block.Bytes
	case pemTypePKCS1:
		der, err = WrapPKCS1(block.Bytes)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unexpected pem type %q", ErrKeyFormat, block.Type)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFormat, err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an rsa key (%T)", ErrInvalidKey, parsed)
	}
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}
