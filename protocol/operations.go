package protocol

import (
	"encoding/hex"
	"fmt"
)

// Operation is one entry of a transaction. The body's json tags give the wire JSON and
// EncodeTo gives the binary form used for transaction ids and signing digests.
type Operation interface {
	Type() string
	EncodeTo(e *Encoder)
}

func encodeOperation(e *Encoder, op Operation) {
	id, ok := OperationIds[op.Type()]
	if !ok {
		e.Fail(fmt.Errorf("unknown operation %q", op.Type()))
		return
	}
	e.WriteVarint32(uint32(id))
	op.EncodeTo(e)
}

type VoteOperation struct {
	Voter    string `json:"voter"`
	Author   string `json:"author"`
	Permlink string `json:"permlink"`
	// Basis points, -10000 to 10000.
	Weight int16 `json:"weight"`
}

func (o *VoteOperation) Type() string { return "vote" }

func (o *VoteOperation) EncodeTo(e *Encoder) {
	e.WriteString(o.Voter)
	e.WriteString(o.Author)
	e.WriteString(o.Permlink)
	e.WriteInt16(o.Weight)
}

type CommentOperation struct {
	ParentAuthor   string `json:"parent_author"`
	ParentPermlink string `json:"parent_permlink"`
	Author         string `json:"author"`
	Permlink       string `json:"permlink"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	JsonMetadata   string `json:"json_metadata"`
}

func (o *CommentOperation) Type() string { return "comment" }

func (o *CommentOperation) EncodeTo(e *Encoder) {
	e.WriteString(o.ParentAuthor)
	e.WriteString(o.ParentPermlink)
	e.WriteString(o.Author)
	e.WriteString(o.Permlink)
	e.WriteString(o.Title)
	e.WriteString(o.Body)
	e.WriteString(o.JsonMetadata)
}

type TransferOperation struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount Asset  `json:"amount"`
	Memo   string `json:"memo"`
}

func (o *TransferOperation) Type() string { return "transfer" }

func (o *TransferOperation) EncodeTo(e *Encoder) {
	e.WriteString(o.From)
	e.WriteString(o.To)
	o.Amount.EncodeTo(e)
	e.WriteString(o.Memo)
}

type CustomJsonOperation struct {
	RequiredAuths        []string `json:"required_auths"`
	RequiredPostingAuths []string `json:"required_posting_auths"`
	Id                   string   `json:"id"`
	Json                 string   `json:"json"`
}

func (o *CustomJsonOperation) Type() string { return "custom_json" }

func (o *CustomJsonOperation) EncodeTo(e *Encoder) {
	e.WriteStrings(o.RequiredAuths)
	e.WriteStrings(o.RequiredPostingAuths)
	e.WriteString(o.Id)
	e.WriteString(o.Json)
}

type DelegateVestingSharesOperation struct {
	Delegator     string `json:"delegator"`
	Delegatee     string `json:"delegatee"`
	VestingShares Asset  `json:"vesting_shares"`
}

func (o *DelegateVestingSharesOperation) Type() string { return "delegate_vesting_shares" }

func (o *DelegateVestingSharesOperation) EncodeTo(e *Encoder) {
	e.WriteString(o.Delegator)
	e.WriteString(o.Delegatee)
	o.VestingShares.EncodeTo(e)
}

// WitnessProp is one serialized witness property, its value hex encoded.
type WitnessProp [2]string

type WitnessSetPropertiesOperation struct {
	Owner      string        `json:"owner"`
	Props      []WitnessProp `json:"props"`
	Extensions []interface{} `json:"extensions"`
}

func (o *WitnessSetPropertiesOperation) Type() string { return "witness_set_properties" }

func (o *WitnessSetPropertiesOperation) EncodeTo(e *Encoder) {
	e.WriteString(o.Owner)
	e.WriteArray(len(o.Props), func(e *Encoder, i int) {
		e.WriteString(o.Props[i][0])
		value, err := hex.DecodeString(o.Props[i][1])
		if err != nil {
			e.Fail(fmt.Errorf("witness prop %s: %w", o.Props[i][0], err))
		}
		e.WriteBytes(value)
	})
	writeEmptyExtensions(e, o.Extensions)
}

func writeEmptyExtensions(e *Encoder, ext []interface{}) {
	if len(ext) > 0 {
		e.Fail(fmt.Errorf("extensions are not supported"))
	}
	e.WriteVarint32(0)
}
