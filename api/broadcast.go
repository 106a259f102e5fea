package api

import (
	"context"
	"fmt"
	"time"

	"github.com/hiverpc/hiverpc/protocol"
	"github.com/hiverpc/hiverpc/rpc"
)

const DefaultExpireIn = 60 * time.Second

type TransactionConfirmation struct {
	ID string `json:"id"`
}

// Broadcast submits transactions. Every call here is a broadcast, so the transport never
// re-sends it once it may have reached a node.
type Broadcast struct {
	caller Caller
	db     *Database
}

func NewBroadcast(caller Caller) *Broadcast {
	return &Broadcast{caller: caller, db: NewDatabase(caller)}
}

// Prepare builds an unsigned transaction referencing the current head block.
func (b *Broadcast) Prepare(ctx context.Context, ops []protocol.Operation, expireIn time.Duration) (*protocol.Transaction, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("a transaction needs at least one operation")
	}
	if expireIn <= 0 {
		expireIn = DefaultExpireIn
	}
	props, err := b.db.GetDynamicGlobalProperties(ctx)
	if err != nil {
		return nil, err
	}
	tx := &protocol.Transaction{
		Expiration: protocol.NewChainTime(props.Time.Add(expireIn)),
		Operations: ops,
	}
	if err := tx.SetReferenceBlock(props.HeadBlockNumber, props.HeadBlockId); err != nil {
		return nil, err
	}
	return tx, nil
}

// Send broadcasts a signed transaction and returns its locally computed id.
func (b *Broadcast) Send(ctx context.Context, tx *protocol.Transaction) (*TransactionConfirmation, error) {
	id, err := tx.ID()
	if err != nil {
		return nil, err
	}
	params := map[string]interface{}{
		"trx":           tx,
		"max_block_age": -1,
	}
	req := rpc.NewBroadcastCall("network_broadcast_api", "broadcast_transaction", params)
	if err := b.caller.SendInto(ctx, req, nil); err != nil {
		return nil, err
	}
	return &TransactionConfirmation{ID: id}, nil
}
