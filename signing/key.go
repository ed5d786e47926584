// Package signing implements local transaction signing: loading a V3
// Ethereum keyfile, deriving its address, and producing EIP-155 signed
// transactions for the eth_sendTransaction compose-then-sign flow.
package signing

import (
	"crypto/rand"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/rpcproxy/jsonrpc-proxy/types"
)

var randRead = rand.Read

// Key is a secp256k1 private key used to sign transactions and messages on
// behalf of a single local account.
type Key struct {
	prv *btcec.PrivateKey
}

// NewKeyFromBytes parses a 32-byte big-endian private key.
func NewKeyFromBytes(b []byte) (*Key, error) {
	if len(b) != 32 {
		return nil, errors.New("private key must be 32 bytes")
	}
	prv, pub := btcec.PrivKeyFromBytes(b)
	if pub == nil {
		return nil, errors.New("invalid private key")
	}
	return &Key{prv: prv}, nil
}

// NewRandomKey generates a new random private key. Used by tests and
// keystore provisioning tooling.
func NewRandomKey() (*Key, error) {
	prv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return &Key{prv: prv}, nil
}

// PrivateKeyBytes returns the 32-byte big-endian private key.
func (k *Key) PrivateKeyBytes() []byte {
	return k.prv.Serialize()
}

// Address returns the Ethereum address derived from the key's public key.
func (k *Key) Address() types.Address {
	return publicKeyToAddress(k.prv.PubKey())
}

// publicKeyToAddress computes the Ethereum address of an uncompressed
// secp256k1 public key: the low 20 bytes of the Keccak256 hash of the
// 64-byte X||Y point encoding (the 0x04 prefix byte is excluded).
func publicKeyToAddress(pub *btcec.PublicKey) types.Address {
	raw := pub.SerializeUncompressed() // 0x04 || X || Y, 65 bytes
	hash := Keccak256(raw[1:])
	var addr types.Address
	copy(addr[:], hash.Bytes()[12:])
	return addr
}

// Keccak256 returns the Keccak256 hash of the concatenation of the given
// byte slices.
func Keccak256(data ...[]byte) types.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var hash types.Hash
	h.Sum(hash[:0])
	return hash
}

// SignHash signs a pre-computed 32-byte hash and returns a 65-byte
// r||s||v signature, where v is 0 or 1.
func (k *Key) SignHash(hash types.Hash) (types.Signature, error) {
	compact := btcecdsa.SignCompact(k.prv, hash.Bytes(), false)
	return compactToSignature(compact)
}

// RecoverHash recovers the address that produced sig over hash.
func RecoverHash(hash types.Hash, sig types.Signature) (types.Address, error) {
	compact := signatureToCompact(sig)
	pub, _, err := btcecdsa.RecoverCompact(compact, hash.Bytes())
	if err != nil {
		return types.Address{}, err
	}
	return publicKeyToAddress(pub), nil
}

// compactToSignature converts a btcec compact signature (1-byte recovery
// code || R || S) into an Ethereum r||s||v signature, normalizing v to 0/1.
func compactToSignature(compact []byte) (types.Signature, error) {
	if len(compact) != 65 {
		return types.Signature{}, errors.New("invalid compact signature length")
	}
	// btcec's SignCompact adds 27 (and 4 more if the key is compressed) to
	// the recovery id; we always sign with isCompressedKey=false.
	v := compact[0] - 27
	var r, s [32]byte
	copy(r[:], compact[1:33])
	copy(s[:], compact[33:65])
	return types.VRSToSignature(v, r, s), nil
}

// signatureToCompact converts an Ethereum r||s||v signature back into the
// btcec compact form expected by RecoverCompact.
func signatureToCompact(sig types.Signature) []byte {
	compact := make([]byte, 65)
	compact[0] = sig.V() + 27
	copy(compact[1:33], sig.R()[:])
	copy(compact[33:65], sig.S()[:])
	return compact
}
