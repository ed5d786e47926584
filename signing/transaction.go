package signing

import (
	"errors"
	"math/big"

	"github.com/rpcproxy/jsonrpc-proxy/types"
)

// SignTransaction computes the EIP-155 signing hash of tx, signs it with k,
// and stores the resulting signature on tx. tx.ChainID must already be set
// for AccessList and DynamicFee transactions, and should be set for Legacy
// transactions that want replay protection.
//
// The upstream node is responsible for filling in every other field (nonce,
// gas, gas price, value, input, to) via parity_composeTransaction; this
// function only sets From to the key's address when it is unset (and
// rejects a different From), adds the signature, and stores the Keccak256
// hash of the signed encoding in tx.Hash.
func (k *Key) SignTransaction(tx *types.Transaction) error {
	if tx.From == nil {
		addr := k.Address()
		tx.From = &addr
	} else if *tx.From != k.Address() {
		return errors.New("transaction 'from' address does not match the signing key")
	}

	hash, err := tx.SigningHash(Keccak256)
	if err != nil {
		return err
	}
	sig, err := k.SignHash(hash)
	if err != nil {
		return err
	}

	switch tx.Type {
	case types.LegacyTxType:
		v := sig.BigV()
		if tx.ChainID != nil && tx.ChainID.Sign() != 0 {
			// EIP-155: v = recovery_id + chain_id*2 + 35
			v = new(big.Int).Add(v, big.NewInt(35))
			v = new(big.Int).Add(v, new(big.Int).Mul(tx.ChainID, big.NewInt(2)))
		} else {
			v = new(big.Int).Add(v, big.NewInt(27))
		}
		signature, err := types.BigIntToSignature(v, sig.BigR(), sig.BigS())
		if err != nil {
			return err
		}
		tx.Signature = signature
	default:
		// EIP-2930/EIP-1559: v is the bare y-parity bit (0 or 1).
		tx.Signature = sig
	}

	raw, err := tx.Raw()
	if err != nil {
		return err
	}
	tx.Hash = Keccak256(raw)
	return nil
}

// RecoverTransactionSender recovers the address that signed tx.
func RecoverTransactionSender(tx types.Transaction) (types.Address, error) {
	hash, err := tx.SigningHash(Keccak256)
	if err != nil {
		return types.Address{}, err
	}

	sig := tx.Signature
	if tx.Type == types.LegacyTxType {
		v := sig.BigV()
		if tx.ChainID != nil && tx.ChainID.Sign() != 0 {
			v = new(big.Int).Sub(v, big.NewInt(35))
			v = new(big.Int).Sub(v, new(big.Int).Mul(tx.ChainID, big.NewInt(2)))
		} else {
			v = new(big.Int).Sub(v, big.NewInt(27))
		}
		var err error
		sig, err = types.BigIntToSignature(v, sig.BigR(), sig.BigS())
		if err != nil {
			return types.Address{}, err
		}
	}

	return RecoverHash(hash, sig)
}
