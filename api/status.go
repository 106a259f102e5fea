package api

import (
	"context"

	"github.com/hiverpc/hiverpc/protocol"
)

type TransactionStatusValue string

const (
	StatusUnknown                 TransactionStatusValue = "unknown"
	StatusWithinMempool           TransactionStatusValue = "within_mempool"
	StatusWithinReversibleBlock   TransactionStatusValue = "within_reversible_block"
	StatusWithinIrreversibleBlock TransactionStatusValue = "within_irreversible_block"
	StatusExpiredReversible       TransactionStatusValue = "expired_reversible"
	StatusExpiredIrreversible     TransactionStatusValue = "expired_irreversible"
	StatusTooOld                  TransactionStatusValue = "too_old"
)

type TransactionStatusResult struct {
	Status TransactionStatusValue `json:"status"`
}

type TransactionStatus struct {
	caller Caller
}

func NewTransactionStatus(caller Caller) *TransactionStatus {
	return &TransactionStatus{caller: caller}
}

// FindTransaction asks where a transaction is in its lifecycle. Passing the expiration
// lets the node tell an expired transaction from one it never saw.
func (s *TransactionStatus) FindTransaction(ctx context.Context, transactionId string, expiration *protocol.ChainTime) (*TransactionStatusResult, error) {
	params := map[string]interface{}{
		"transaction_id": transactionId,
	}
	if expiration != nil {
		params["expiration"] = *expiration
	}
	out := &TransactionStatusResult{}
	if err := s.caller.CallInto(ctx, "transaction_status_api", "find_transaction", params, out); err != nil {
		return nil, err
	}
	return out, nil
}

type KeyReferences struct {
	Accounts [][]string `json:"accounts"`
}

type Keys struct {
	caller Caller
}

func NewKeys(caller Caller) *Keys {
	return &Keys{caller: caller}
}

// GetKeyReferences returns, per key, the accounts whose owner or active authority holds it.
func (k *Keys) GetKeyReferences(ctx context.Context, keys []string) (*KeyReferences, error) {
	out := &KeyReferences{}
	params := map[string]interface{}{"keys": keys}
	if err := k.caller.CallInto(ctx, "account_by_key_api", "get_key_references", params, out); err != nil {
		return nil, err
	}
	return out, nil
}
