package protocol

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hiverpc/hiverpc/common"
)

const chainTimeLayout = "2006-01-02T15:04:05"

// ChainTime is a UTC timestamp in the node's JSON layout, without zone suffix.
type ChainTime struct {
	time.Time
}

func NewChainTime(t time.Time) ChainTime {
	return ChainTime{t.UTC().Truncate(time.Second)}
}

func (t ChainTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(chainTimeLayout) + `"`), nil
}

func (t *ChainTime) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("chain time must be a json string")
	}
	parsed, err := time.ParseInLocation(chainTimeLayout, string(data[1:len(data)-1]), time.UTC)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Transaction is an unsigned transaction. Signatures are carried alongside for broadcast
// but take no part in the id.
type Transaction struct {
	RefBlockNum    uint16
	RefBlockPrefix uint32
	Expiration     ChainTime
	Operations     []Operation
	Signatures     []common.HexBytes
}

// SetReferenceBlock points the transaction at a recent block, which bounds where the
// chain will accept it. blockId is the hex id of block headBlockNumber.
func (tx *Transaction) SetReferenceBlock(headBlockNumber uint32, blockId string) error {
	id, err := hex.DecodeString(blockId)
	if err != nil {
		return fmt.Errorf("invalid block id: %w", err)
	}
	if len(id) < 8 {
		return fmt.Errorf("block id %q is too short", blockId)
	}
	tx.RefBlockNum = uint16(headBlockNumber & 0xffff)
	tx.RefBlockPrefix = binary.LittleEndian.Uint32(id[4:8])
	return nil
}

func (tx *Transaction) EncodeTo(e *Encoder) {
	e.WriteUint16(tx.RefBlockNum)
	e.WriteUint32(tx.RefBlockPrefix)
	e.WriteTime(tx.Expiration.Time)
	e.WriteArray(len(tx.Operations), func(e *Encoder, i int) {
		encodeOperation(e, tx.Operations[i])
	})
	writeEmptyExtensions(e, nil)
}

func (tx *Transaction) Serialize() ([]byte, error) {
	e := NewEncoder()
	tx.EncodeTo(e)
	if err := e.Err(); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// ID is the first 20 bytes of sha256 over the serialized transaction, in hex.
func (tx *Transaction) ID() (string, error) {
	b, err := tx.Serialize()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:20]), nil
}

// Digest is what gets signed: sha256 over the chain id followed by the transaction.
func (tx *Transaction) Digest(chainId []byte) ([]byte, error) {
	b, err := tx.Serialize()
	if err != nil {
		return nil, err
	}
	h := sha256.New()
	h.Write(chainId)
	h.Write(b)
	return h.Sum(nil), nil
}

type transactionJSON struct {
	RefBlockNum    uint16            `json:"ref_block_num"`
	RefBlockPrefix uint32            `json:"ref_block_prefix"`
	Expiration     ChainTime         `json:"expiration"`
	Operations     [][2]interface{}  `json:"operations"`
	Extensions     []interface{}     `json:"extensions"`
	Signatures     []common.HexBytes `json:"signatures"`
}

func (tx *Transaction) MarshalJSON() ([]byte, error) {
	ops := make([][2]interface{}, len(tx.Operations))
	for i, op := range tx.Operations {
		ops[i] = [2]interface{}{op.Type(), op}
	}
	sigs := tx.Signatures
	if sigs == nil {
		sigs = []common.HexBytes{}
	}
	return common.SonicCfg.Marshal(&transactionJSON{
		RefBlockNum:    tx.RefBlockNum,
		RefBlockPrefix: tx.RefBlockPrefix,
		Expiration:     tx.Expiration,
		Operations:     ops,
		Extensions:     []interface{}{},
		Signatures:     sigs,
	})
}
