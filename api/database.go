package api

import (
	"context"

	"github.com/hiverpc/hiverpc/protocol"
	"github.com/hiverpc/hiverpc/rpc"
)

// Caller is the part of rpc.Client the helpers need.
type Caller interface {
	CallInto(ctx context.Context, api, method string, params interface{}, out interface{}) error
	SendInto(ctx context.Context, req rpc.Request, out interface{}) error
}

const condenserApi = "condenser_api"

type DynamicGlobalProperties struct {
	HeadBlockNumber          uint32             `json:"head_block_number"`
	HeadBlockId              string             `json:"head_block_id"`
	Time                     protocol.ChainTime `json:"time"`
	CurrentWitness           string             `json:"current_witness"`
	LastIrreversibleBlockNum uint32             `json:"last_irreversible_block_num"`
	CurrentSupply            string             `json:"current_supply"`
	CurrentHbdSupply         string             `json:"current_hbd_supply"`
	TotalVestingFundHive     string             `json:"total_vesting_fund_hive"`
	TotalVestingShares       string             `json:"total_vesting_shares"`
}

type Account struct {
	Id              int64  `json:"id"`
	Name            string `json:"name"`
	Balance         string `json:"balance"`
	HbdBalance      string `json:"hbd_balance"`
	VestingShares   string `json:"vesting_shares"`
	MemoKey         string `json:"memo_key"`
	JsonMetadata    string `json:"json_metadata"`
	PostingMetadata string `json:"posting_json_metadata"`
	Created         string `json:"created"`
}

type SignedBlock struct {
	Previous              string        `json:"previous"`
	Timestamp             string        `json:"timestamp"`
	Witness               string        `json:"witness"`
	TransactionMerkleRoot string        `json:"transaction_merkle_root"`
	WitnessSignature      string        `json:"witness_signature"`
	BlockId               string        `json:"block_id"`
	TransactionIds        []string      `json:"transaction_ids"`
	Transactions          []interface{} `json:"transactions"`
}

// Database wraps the condenser_api read calls.
type Database struct {
	caller Caller
}

func NewDatabase(caller Caller) *Database {
	return &Database{caller: caller}
}

func (d *Database) Call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	return d.caller.CallInto(ctx, condenserApi, method, params, out)
}

func (d *Database) GetDynamicGlobalProperties(ctx context.Context) (*DynamicGlobalProperties, error) {
	out := &DynamicGlobalProperties{}
	if err := d.Call(ctx, "get_dynamic_global_properties", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Database) GetConfig(ctx context.Context) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if err := d.Call(ctx, "get_config", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Database) GetAccounts(ctx context.Context, names []string) ([]Account, error) {
	var out []Account
	if err := d.Call(ctx, "get_accounts", []interface{}{names}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBlock returns nil without error for a block the node does not have yet.
func (d *Database) GetBlock(ctx context.Context, blockNum uint32) (*SignedBlock, error) {
	var out *SignedBlock
	if err := d.Call(ctx, "get_block", []interface{}{blockNum}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAccountHistory lists up to limit entries ending at from (-1 for the latest). With
// operationIds set, only those operations are returned.
func (d *Database) GetAccountHistory(ctx context.Context, account string, from int64, limit uint32, operationIds []int) ([][2]interface{}, error) {
	params := []interface{}{account, from, limit}
	if len(operationIds) > 0 {
		mask := protocol.MakeBitMaskFilter(operationIds)
		params = append(params, mask[0], mask[1])
	}
	var out [][2]interface{}
	if err := d.Call(ctx, "get_account_history", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}
