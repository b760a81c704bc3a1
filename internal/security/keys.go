package security

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
)

type RSAKey struct {
	Kid     string
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// KeyManager holds the RS256 signing key. It is loaded once at startup;
// there is no runtime rotation.
type KeyManager struct {
	Active *RSAKey
}

func ParsePrivateKeyPEM(b []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, errors.New("invalid PEM")
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rk, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("not an RSA key")
		}
		return rk, nil
	default:
		return nil, fmt.Errorf("unsupported key type %q", block.Type)
	}
}

func LoadKeyManager(kid, path string) (*KeyManager, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}
	priv, err := ParsePrivateKeyPEM(b)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	return NewKeyManager(kid, priv), nil
}

func NewKeyManager(kid string, priv *rsa.PrivateKey) *KeyManager {
	return &KeyManager{Active: &RSAKey{Kid: kid, Private: priv, Public: &priv.PublicKey}}
}

// JWK is the RFC 7517 subset needed to publish an RSA verification key.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type JWKS struct {
	Keys []JWK `json:"keys"`
}

func (km *KeyManager) JWKS() JWKS {
	if km == nil || km.Active == nil {
		return JWKS{Keys: []JWK{}}
	}
	pub := km.Active.Public
	return JWKS{Keys: []JWK{{
		Kty: "RSA",
		Kid: km.Active.Kid,
		Use: "sig",
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}}
}
