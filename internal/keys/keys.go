package keys

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ggonzalez94/casper-cli/internal/chain"
	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
)

const (
	SecretKeyFile    = "secret_key.pem"
	PublicKeyFile    = "public_key.pem"
	PublicKeyHexFile = "public_key_hex"

	pemPrivateKey   = "PRIVATE KEY"
	pemECPrivateKey = "EC PRIVATE KEY"
	pemPublicKey    = "PUBLIC KEY"
)

var (
	oidSecp256k1   = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
	oidECPublicKey = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
)

// SecretKey signs artifact hashes on behalf of its public key.
type SecretKey interface {
	PublicKey() chain.PublicKey
	Sign(msg []byte) (chain.Signature, error)
}

type ed25519Key struct {
	priv ed25519.PrivateKey
	pub  chain.PublicKey
}

func (k *ed25519Key) PublicKey() chain.PublicKey { return k.pub }

func (k *ed25519Key) Sign(msg []byte) (chain.Signature, error) {
	return chain.Signature{Algorithm: chain.AlgorithmEd25519, Raw: ed25519.Sign(k.priv, msg)}, nil
}

type secp256k1Key struct {
	priv *ecdsa.PrivateKey
	pub  chain.PublicKey
}

func (k *secp256k1Key) PublicKey() chain.PublicKey { return k.pub }

// Sign produces a 64-byte r||s signature over sha256(msg).
func (k *secp256k1Key) Sign(msg []byte) (chain.Signature, error) {
	digest := sha256.Sum256(msg)
	sig, err := crypto.Sign(digest[:], k.priv)
	if err != nil {
		return chain.Signature{}, fmt.Errorf("secp256k1 sign: %w", err)
	}
	return chain.Signature{Algorithm: chain.AlgorithmSecp256k1, Raw: sig[:chain.SignatureLength]}, nil
}

// Verify checks sig against msg for the given public key.
func Verify(pub chain.PublicKey, msg []byte, sig chain.Signature) bool {
	if pub.Algorithm != sig.Algorithm || len(sig.Raw) != chain.SignatureLength {
		return false
	}
	switch pub.Algorithm {
	case chain.AlgorithmEd25519:
		return ed25519.Verify(ed25519.PublicKey(pub.Raw), msg, sig.Raw)
	case chain.AlgorithmSecp256k1:
		digest := sha256.Sum256(msg)
		return crypto.VerifySignature(pub.Raw, digest[:], sig.Raw)
	default:
		return false
	}
}

// Load reads a PEM secret key file.
func Load(path string) (SecretKey, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, clierr.New(clierr.CodeKeyLoad, "secret key path is empty")
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeKeyLoad, fmt.Sprintf("read secret key %s", path), err)
	}
	key, err := ParsePEM(buf)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeKeyLoad, fmt.Sprintf("parse secret key %s", path), err)
	}
	return key, nil
}

// ParsePEM accepts a PKCS#8 "PRIVATE KEY" block (ed25519 or secp256k1) or a SEC1
// "EC PRIVATE KEY" block (secp256k1).
func ParsePEM(data []byte) (SecretKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	switch block.Type {
	case pemECPrivateKey:
		return parseSEC1(block.Bytes)
	case pemPrivateKey:
		if parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
			priv, ok := parsed.(ed25519.PrivateKey)
			if !ok {
				return nil, fmt.Errorf("unsupported PKCS#8 key type %T", parsed)
			}
			return newEd25519Key(priv)
		}
		return parsePKCS8Secp256k1(block.Bytes)
	default:
		return nil, fmt.Errorf("unsupported PEM block type %q", block.Type)
	}
}

type ecPrivateKey struct {
	Version       int
	PrivateKey    []byte
	NamedCurveOID asn1.ObjectIdentifier `asn1:"optional,explicit,tag:0"`
	PublicKey     asn1.BitString        `asn1:"optional,explicit,tag:1"`
}

type pkcs8 struct {
	Version    int
	Algo       pkix.AlgorithmIdentifier
	PrivateKey []byte
}

type subjectPublicKeyInfo struct {
	Algorithm pkix.AlgorithmIdentifier
	PublicKey asn1.BitString
}

func parseSEC1(der []byte) (SecretKey, error) {
	var raw ecPrivateKey
	if _, err := asn1.Unmarshal(der, &raw); err != nil {
		return nil, fmt.Errorf("decode EC private key: %w", err)
	}
	if len(raw.NamedCurveOID) > 0 && !raw.NamedCurveOID.Equal(oidSecp256k1) {
		return nil, fmt.Errorf("unsupported EC curve %s", raw.NamedCurveOID)
	}
	return secp256k1FromScalar(raw.PrivateKey)
}

func parsePKCS8Secp256k1(der []byte) (SecretKey, error) {
	var raw pkcs8
	if _, err := asn1.Unmarshal(der, &raw); err != nil {
		return nil, fmt.Errorf("decode PKCS#8 private key: %w", err)
	}
	if !raw.Algo.Algorithm.Equal(oidECPublicKey) {
		return nil, fmt.Errorf("unsupported PKCS#8 algorithm %s", raw.Algo.Algorithm)
	}
	var curve asn1.ObjectIdentifier
	if _, err := asn1.Unmarshal(raw.Algo.Parameters.FullBytes, &curve); err != nil || !curve.Equal(oidSecp256k1) {
		return nil, fmt.Errorf("PKCS#8 EC key is not on secp256k1")
	}
	return parseSEC1(raw.PrivateKey)
}

func secp256k1FromScalar(scalar []byte) (SecretKey, error) {
	if len(scalar) > 32 {
		return nil, fmt.Errorf("secp256k1 scalar is %d bytes", len(scalar))
	}
	padded := make([]byte, 32)
	copy(padded[32-len(scalar):], scalar)
	priv, err := crypto.ToECDSA(padded)
	if err != nil {
		return nil, fmt.Errorf("invalid secp256k1 key: %w", err)
	}
	return newSecp256k1Key(priv)
}

func newEd25519Key(priv ed25519.PrivateKey) (*ed25519Key, error) {
	pub, err := chain.NewPublicKey(chain.AlgorithmEd25519, priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &ed25519Key{priv: priv, pub: pub}, nil
}

func newSecp256k1Key(priv *ecdsa.PrivateKey) (*secp256k1Key, error) {
	pub, err := chain.NewPublicKey(chain.AlgorithmSecp256k1, crypto.CompressPubkey(&priv.PublicKey))
	if err != nil {
		return nil, err
	}
	return &secp256k1Key{priv: priv, pub: pub}, nil
}

// ParseAlgorithm maps "ed25519" or "secp256k1" to its tag.
func ParseAlgorithm(raw string) (chain.Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "ed25519":
		return chain.AlgorithmEd25519, nil
	case "secp256k1":
		return chain.AlgorithmSecp256k1, nil
	default:
		return 0, clierr.Newf(clierr.CodeInvalidArgument, "unsupported key algorithm %q (expected ed25519|secp256k1)", raw)
	}
}

// Generate creates a fresh random key.
func Generate(algo chain.Algorithm) (SecretKey, error) {
	switch algo {
	case chain.AlgorithmEd25519:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeInternal, "generate ed25519 key", err)
		}
		return newEd25519Key(priv)
	case chain.AlgorithmSecp256k1:
		priv, err := crypto.GenerateKey()
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeInternal, "generate secp256k1 key", err)
		}
		return newSecp256k1Key(priv)
	default:
		return nil, clierr.Newf(clierr.CodeInvalidArgument, "unsupported key algorithm tag %d", byte(algo))
	}
}

// EncodeSecretPEM renders the key the way Load expects to read it back.
func EncodeSecretPEM(key SecretKey) ([]byte, error) {
	switch k := key.(type) {
	case *ed25519Key:
		der, err := x509.MarshalPKCS8PrivateKey(k.priv)
		if err != nil {
			return nil, err
		}
		return pem.EncodeToMemory(&pem.Block{Type: pemPrivateKey, Bytes: der}), nil
	case *secp256k1Key:
		der, err := asn1.Marshal(ecPrivateKey{
			Version:       1,
			PrivateKey:    crypto.FromECDSA(k.priv),
			NamedCurveOID: oidSecp256k1,
			PublicKey:     bitString(k.pub.Raw),
		})
		if err != nil {
			return nil, err
		}
		return pem.EncodeToMemory(&pem.Block{Type: pemECPrivateKey, Bytes: der}), nil
	default:
		return nil, fmt.Errorf("unsupported secret key type %T", key)
	}
}

func EncodePublicPEM(pub chain.PublicKey) ([]byte, error) {
	var der []byte
	var err error
	switch pub.Algorithm {
	case chain.AlgorithmEd25519:
		der, err = x509.MarshalPKIXPublicKey(ed25519.PublicKey(pub.Raw))
	case chain.AlgorithmSecp256k1:
		curve, cerr := asn1.Marshal(oidSecp256k1)
		if cerr != nil {
			return nil, cerr
		}
		der, err = asn1.Marshal(subjectPublicKeyInfo{
			Algorithm: pkix.AlgorithmIdentifier{Algorithm: oidECPublicKey, Parameters: asn1.RawValue{FullBytes: curve}},
			PublicKey: bitString(pub.Raw),
		})
	default:
		return nil, fmt.Errorf("unsupported public key algorithm %s", pub.Algorithm)
	}
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemPublicKey, Bytes: der}), nil
}

func bitString(b []byte) asn1.BitString {
	return asn1.BitString{Bytes: b, BitLength: len(b) * 8}
}

// WriteFiles writes secret_key.pem, public_key.pem and public_key_hex into dir and
// returns the written paths. Existing files are only replaced when force is set.
func WriteFiles(dir string, key SecretKey, force bool) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, clierr.New(clierr.CodeInvalidArgument, "output directory is required")
	}
	secret, err := EncodeSecretPEM(key)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeSerialization, "encode secret key", err)
	}
	public, err := EncodePublicPEM(key.PublicKey())
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeSerialization, "encode public key", err)
	}
	files := []struct {
		name string
		data []byte
		perm os.FileMode
	}{
		{SecretKeyFile, secret, 0o600},
		{PublicKeyFile, public, 0o644},
		{PublicKeyHexFile, []byte(key.PublicKey().Hex()), 0o644},
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "create key directory", err)
	}
	if !force {
		for _, f := range files {
			path := filepath.Join(dir, f.name)
			if _, err := os.Stat(path); err == nil {
				return nil, clierr.Newf(clierr.CodeInvalidArgument, "%s already exists; rerun with --force to overwrite", path)
			}
		}
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.data, f.perm); err != nil {
			return nil, clierr.Wrap(clierr.CodeInternal, fmt.Sprintf("write %s", path), err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
