package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/defiweb/go-rlp"
)

type TransactionType uint64

// Transaction types.
const (
	LegacyTxType TransactionType = iota
	AccessListTxType
	DynamicFeeTxType
)

// Transaction represents a transaction.
type Transaction struct {
	Type      TransactionType
	From      *Address
	To        *Address
	Gas       uint64
	GasPrice  *big.Int
	Input     []byte
	Nonce     *big.Int
	Value     *big.Int
	Signature Signature

	// On-chain fields
	Hash             Hash
	BlockHash        *Hash
	BlockNumber      *uint64
	TransactionIndex uint64

	// EIP-2930 fields
	ChainID    *big.Int
	AccessList AccessList

	// EIP-1559 fields
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
}

// Raw returns the raw transaction data that could be sent to the network.
func (t Transaction) Raw() ([]byte, error) {
	return t.EncodeRLP()
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	transaction := &jsonTransaction{
		Hash:             t.Hash,
		BlockHash:        t.BlockHash,
		TransactionIndex: Uint64ToNumber(t.TransactionIndex),
		From:             t.From,
		To:               t.To,
		Gas:              Uint64ToNumber(t.Gas),
		GasPrice:         BigIntToNumber(t.GasPrice),
		Input:            t.Input,
		Nonce:            BigIntToNumber(t.Nonce),
		Value:            BigIntToNumber(t.Value),
		V:                BigIntToNumber(t.Signature.BigV()),
		R:                BigIntToNumber(t.Signature.BigR()),
		S:                BigIntToNumber(t.Signature.BigS()),
	}
	if t.BlockNumber != nil {
		blockNumber := Uint64ToNumber(*t.BlockNumber)
		transaction.BlockNumber = &blockNumber
	}
	return json.Marshal(transaction)
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	transaction := &jsonTransaction{}
	if err := json.Unmarshal(data, transaction); err != nil {
		return err
	}
	signature, err := BigIntToSignature(transaction.V.Big(), transaction.R.Big(), transaction.S.Big())
	if err != nil {
		return err
	}
	t.Hash = transaction.Hash
	t.BlockHash = transaction.BlockHash
	t.TransactionIndex = transaction.TransactionIndex.Big().Uint64()
	t.From = transaction.From
	t.To = transaction.To
	t.Gas = transaction.Gas.Big().Uint64()
	t.GasPrice = transaction.GasPrice.Big()
	t.Input = transaction.Input
	t.Nonce = transaction.Nonce.Big()
	t.Value = transaction.Value.Big()
	t.Signature = signature
	if transaction.BlockNumber != nil {
		blockNumber := transaction.BlockNumber.Big().Uint64()
		t.BlockNumber = &blockNumber
	}
	return nil
}

func (t Transaction) EncodeRLP() ([]byte, error) {
	l := rlp.NewList()
	if t.Type != LegacyTxType {
		l.Append(rlp.NewBigInt(t.ChainID))
	}
	l.Append(rlp.NewBigInt(t.Nonce))
	if t.Type == DynamicFeeTxType {
		l.Append(rlp.NewBigInt(t.MaxPriorityFeePerGas))
		l.Append(rlp.NewBigInt(t.MaxFeePerGas))
	} else {
		l.Append(rlp.NewBigInt(t.GasPrice))
	}
	l.Append(rlp.NewUint(t.Gas))
	l.Append(t.To)
	l.Append(rlp.NewBigInt(t.Value))
	l.Append(rlp.NewBytes(t.Input))
	if t.Type != LegacyTxType {
		l.Append(&t.AccessList)
	}
	l.Append(rlp.NewBigInt(t.Signature.BigV()))
	l.Append(rlp.NewBigInt(t.Signature.BigR()))
	l.Append(rlp.NewBigInt(t.Signature.BigS()))
	b, err := rlp.Encode(l)
	if err != nil {
		return nil, err
	}
	if t.Type == AccessListTxType {
		b = append([]byte{byte(AccessListTxType)}, b...)
	}
	if t.Type == DynamicFeeTxType {
		b = append([]byte{byte(DynamicFeeTxType)}, b...)
	}
	return b, nil
}

func (t *Transaction) DecodeRLP(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	typ := TransactionType(data[0])
	var (
		elemNum int
		elemIdx int
	)
	switch typ {
	default:
		t.Type = LegacyTxType
		elemNum = 9
	case AccessListTxType:
		t.Type = AccessListTxType
		elemNum = 11
		data = data[1:]
	case DynamicFeeTxType:
		t.Type = DynamicFeeTxType
		elemNum = 12
		data = data[1:]
	}
	d, n, err := rlp.Decode(data)
	if err != nil {
		return 0, err
	}
	l, err := d.GetList()
	if err != nil {
		return 0, err
	}
	if len(l) != elemNum {
		return 0, errors.New("invalid transaction RLP")
	}
	if t.Type != LegacyTxType {
		if t.ChainID, err = l[elemIdx].GetBigInt(); err != nil {
			return 0, err
		}
		elemIdx++
	}
	if t.Nonce, err = l[elemIdx].GetBigInt(); err != nil {
		return 0, err
	}
	elemIdx++
	if t.Type == DynamicFeeTxType {
		if t.MaxPriorityFeePerGas, err = l[elemIdx].GetBigInt(); err != nil {
			return 0, err
		}
		elemIdx++
		if t.MaxFeePerGas, err = l[elemIdx].GetBigInt(); err != nil {
			return 0, err
		}
		elemIdx++
	} else {
		if t.GasPrice, err = l[elemIdx].GetBigInt(); err != nil {
			return 0, err
		}
		elemIdx++
	}
	if t.Gas, err = l[elemIdx].GetUint(); err != nil {
		return 0, err
	}
	elemIdx++
	if err := l[elemIdx].Get(&Address{}, func(i rlp.Item) { t.To = i.(*Address) }); err != nil {
		return 0, err
	}
	elemIdx++
	if t.Value, err = l[elemIdx].GetBigInt(); err != nil {
		return 0, err
	}
	elemIdx++
	if t.Input, err = l[elemIdx].GetBytes(); err != nil {
		return 0, err
	}
	elemIdx++
	if t.Type != LegacyTxType {
		if err := l[elemIdx].Get(&AccessList{}, func(i rlp.Item) { t.AccessList = *i.(*AccessList) }); err != nil {
			return 0, err
		}
		elemIdx++
	}
	var v, r, s *big.Int
	if v, err = l[elemIdx].GetBigInt(); err != nil {
		return 0, err
	}
	elemIdx++
	if r, err = l[elemIdx].GetBigInt(); err != nil {
		return 0, err
	}
	elemIdx++
	if s, err = l[elemIdx].GetBigInt(); err != nil {
		return 0, err
	}
	sig, err := BigIntToSignature(v, r, s)
	if err != nil {
		return 0, err
	}
	t.Signature = sig
	if t.Type == LegacyTxType {
		return n, nil
	}
	return n + 1, nil
}

// SigningHash returns the transaction hash to be signed by the sender.
func (t Transaction) SigningHash(h HashFunc) (Hash, error) {
	l := rlp.NewList()
	if t.Type != LegacyTxType {
		l.Append(rlp.NewBigInt(t.ChainID))
	}
	l.Append(rlp.NewBigInt(t.Nonce))
	if t.Type == DynamicFeeTxType {
		l.Append(rlp.NewBigInt(t.MaxPriorityFeePerGas))
		l.Append(rlp.NewBigInt(t.MaxFeePerGas))
	} else {
		l.Append(rlp.NewBigInt(t.GasPrice))
	}
	l.Append(rlp.NewUint(t.Gas))
	l.Append(t.To)
	l.Append(rlp.NewBigInt(t.Value))
	l.Append(rlp.NewBytes(t.Input))
	if t.Type != LegacyTxType {
		l.Append(&t.AccessList)
	}
	// EIP-155 replay-protection
	if t.ChainID != nil && t.ChainID.Sign() != 0 && t.Type == LegacyTxType {
		l.Append(rlp.NewBigInt(t.ChainID))
		l.Append(rlp.NewBigInt(big.NewInt(0)))
		l.Append(rlp.NewBigInt(big.NewInt(0)))
	}
	b, err := rlp.Encode(l)
	if err != nil {
		return ZeroHash, err
	}
	if t.Type == AccessListTxType {
		b = append([]byte{byte(AccessListTxType)}, b...)
	}
	if t.Type == DynamicFeeTxType {
		b = append([]byte{byte(DynamicFeeTxType)}, b...)
	}
	return h(b), nil
}

type jsonTransaction struct {
	Hash             Hash     `json:"hash"`
	BlockHash        *Hash    `json:"blockHash"`
	BlockNumber      *Number  `json:"blockNumber"`
	TransactionIndex Number   `json:"transactionIndex"`
	From             *Address `json:"from"`
	To               *Address `json:"to"`
	Gas              Number   `json:"gas"`
	GasPrice         Number   `json:"gasPrice"`
	Input            Bytes    `json:"input"`
	Nonce            Number   `json:"nonce"`
	Value            Number   `json:"value"`
	V                Number   `json:"v"`
	R                Number   `json:"r"`
	S                Number   `json:"s"`
}

// AccessList is an EIP-2930 access list.
type AccessList []AccessTuple

// AccessTuple is the element type of access list.
type AccessTuple struct {
	Address     Address `json:"address"`
	StorageKeys []Hash  `json:"storageKeys"`
}

func (a AccessList) EncodeRLP() ([]byte, error) {
	l := rlp.NewList()
	for _, tuple := range a {
		tuple := tuple
		l.Append(&tuple)
	}
	return rlp.Encode(l)
}

func (a *AccessList) DecodeRLP(data []byte) (int, error) {
	d, n, err := rlp.Decode(data)
	if err != nil {
		return 0, err
	}
	l, err := d.GetList()
	if err != nil {
		return 0, err
	}
	for _, tuple := range l {
		var t AccessTuple
		if err := tuple.DecodeInto(&t); err != nil {
			return 0, err
		}
		*a = append(*a, t)
	}
	return n, nil
}

func (a AccessTuple) EncodeRLP() ([]byte, error) {
	h := rlp.NewList()
	for _, hash := range a.StorageKeys {
		hash := hash
		h.Append(&hash)
	}
	return rlp.Encode(rlp.NewList(&a.Address, h))
}

func (a *AccessTuple) DecodeRLP(data []byte) (int, error) {
	d, n, err := rlp.Decode(data)
	if err != nil {
		return n, err
	}
	l, err := d.GetList()
	if err != nil {
		return n, err
	}
	if len(l) != 2 {
		return n, fmt.Errorf("invalid access list tuple")
	}
	if err := l[0].DecodeInto(&a.Address); err != nil {
		return n, err
	}
	h, err := l[1].GetList()
	if err != nil {
		return n, err
	}
	for _, item := range h {
		var hash Hash
		if err := item.DecodeInto(&hash); err != nil {
			return n, err
		}
		a.StorageKeys = append(a.StorageKeys, hash)
	}
	return n, nil
}
