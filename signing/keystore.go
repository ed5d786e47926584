package signing

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"

	"github.com/rpcproxy/jsonrpc-proxy/types"
)

// The decrypt/derive/cipher helpers below are based on
// github.com/ethereum/go-ethereum/tree/master/accounts/keystore.

const (
	StandardScryptN = 1 << 18
	StandardScryptP = 1
	scryptR         = 8
	scryptDKLen     = 32
)

// LoadKeyfile decrypts a V3 Ethereum keyfile and returns the private key it
// contains. It is the only entry point the signing middleware needs: the
// proxy is configured with exactly one local signing key, not a wallet
// directory.
func LoadKeyfile(path string, passphrase string) (*Key, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyfile: %w", err)
	}
	var jKey jsonKey
	if err := json.Unmarshal(content, &jKey); err != nil {
		return nil, fmt.Errorf("failed to parse keyfile: %w", err)
	}
	if jKey.Version != 3 {
		return nil, errors.New("only V3 keyfiles are supported")
	}
	prv, err := decryptV3Key(jKey.Crypto, []byte(passphrase))
	if err != nil {
		return nil, err
	}
	key, err := NewKeyFromBytes(prv)
	if err != nil {
		return nil, err
	}
	if jKey.Address != (types.Address{}) && jKey.Address != key.Address() {
		return nil, errors.New("decrypted key address does not match address in keyfile")
	}
	return key, nil
}

// JSON returns the V3 keyfile representation of the key, encrypted with the
// given passphrase. Used by tests and by tooling that provisions keyfiles.
func (k *Key) JSON(passphrase string, scryptN, scryptP int) ([]byte, error) {
	jKey, err := encryptV3Key(k.PrivateKeyBytes(), passphrase, scryptN, scryptP)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jKey)
}

func encryptV3Key(prv []byte, passphrase string, scryptN, scryptP int) (*jsonKey, error) {
	salt := make([]byte, 32)
	if _, err := randRead(salt); err != nil {
		return nil, err
	}
	derivedKey, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, scryptDKLen)
	if err != nil {
		return nil, err
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := randRead(iv); err != nil {
		return nil, err
	}
	data := make([]byte, 32)
	copy(data[32-len(prv):], prv)
	cipherText, err := aesCTRXOR(derivedKey[:16], data, iv)
	if err != nil {
		return nil, err
	}
	mac := Keccak256(derivedKey[16:32], cipherText)
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	key, err := NewKeyFromBytes(prv)
	if err != nil {
		return nil, err
	}
	return &jsonKey{
		Version: 3,
		ID:      id.String(),
		Address: key.Address(),
		Crypto: jsonKeyCrypto{
			Cipher:       "aes-128-ctr",
			CipherParams: jsonKeyCipherParams{IV: iv},
			CipherText:   cipherText,
			KDF:          "scrypt",
			KDFParams: jsonKeyKDFParams{
				DKLen: scryptDKLen,
				N:     scryptN,
				P:     scryptP,
				R:     scryptR,
				Salt:  salt,
			},
			MAC: mac.Bytes(),
		},
	}, nil
}

// decryptV3Key decrypts the given V3 key crypto section with the given
// passphrase.
func decryptV3Key(cryptoJSON jsonKeyCrypto, passphrase []byte) ([]byte, error) {
	if cryptoJSON.Cipher != "aes-128-ctr" {
		return nil, fmt.Errorf("cipher not supported: %v", cryptoJSON.Cipher)
	}
	derivedKey, err := deriveKey(cryptoJSON, passphrase)
	if err != nil {
		return nil, err
	}
	calculatedMAC := Keccak256(derivedKey[16:32], cryptoJSON.CipherText)
	if !bytes.Equal(calculatedMAC.Bytes(), cryptoJSON.MAC) {
		return nil, errors.New("invalid passphrase or keyfile")
	}
	return aesCTRXOR(derivedKey[:16], cryptoJSON.CipherText, cryptoJSON.CipherParams.IV)
}

// deriveKey returns the derived key from the JSON keyfile.
func deriveKey(cryptoJSON jsonKeyCrypto, passphrase []byte) ([]byte, error) {
	salt := cryptoJSON.KDFParams.Salt
	dkLen := cryptoJSON.KDFParams.DKLen
	switch cryptoJSON.KDF {
	case "scrypt":
		n := cryptoJSON.KDFParams.N
		r := cryptoJSON.KDFParams.R
		p := cryptoJSON.KDFParams.P
		return scrypt.Key(passphrase, salt, n, r, p, dkLen)
	case "pbkdf2":
		c := cryptoJSON.KDFParams.C
		prf := cryptoJSON.KDFParams.PRF
		if prf != "hmac-sha256" {
			return nil, fmt.Errorf("unsupported PBKDF2 PRF: %s", prf)
		}
		return pbkdf2.Key(passphrase, salt, c, dkLen, sha256.New), nil
	}
	return nil, fmt.Errorf("unsupported KDF: %s", cryptoJSON.KDF)
}

// aesCTRXOR performs AES-128-CTR encryption/decryption (the cipher is
// symmetric) on inText with the given key and IV.
func aesCTRXOR(key, inText, iv []byte) ([]byte, error) {
	aesBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	stream := cipher.NewCTR(aesBlock, iv)
	outText := make([]byte, len(inText))
	stream.XORKeyStream(outText, inText)
	return outText, nil
}

type jsonKey struct {
	ID      string        `json:"id"`
	Version int64         `json:"version"`
	Address types.Address `json:"address"`
	Crypto  jsonKeyCrypto `json:"crypto"`
}

type jsonKeyCrypto struct {
	Cipher       string              `json:"cipher"`
	CipherText   jsonHex             `json:"ciphertext"`
	CipherParams jsonKeyCipherParams `json:"cipherparams"`
	KDF          string              `json:"kdf"`
	KDFParams    jsonKeyKDFParams    `json:"kdfparams"`
	MAC          jsonHex             `json:"mac"`
}

type jsonKeyCipherParams struct {
	IV jsonHex `json:"iv"`
}

type jsonKeyKDFParams struct {
	DKLen int     `json:"dklen"`
	Salt  jsonHex `json:"salt"`

	// Scrypt params:
	N int `json:"n"`
	P int `json:"p"`
	R int `json:"r"`

	// PBKDF2 params:
	C   int    `json:"c"`
	PRF string `json:"prf"`
}

type jsonHex []byte

func (h jsonHex) MarshalJSON() ([]byte, error) {
	return []byte(`"` + hex.EncodeToString(h) + `"`), nil
}

func (h *jsonHex) UnmarshalJSON(data []byte) (err error) {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("invalid hex string")
	}
	*h, err = hex.DecodeString(string(data[1 : len(data)-1]))
	return
}
