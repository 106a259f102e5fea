package protocol

import (
	"fmt"
	"sort"
)

// WitnessProps are the settable witness properties. Key is the current signing key and
// is always sent; nil fields are left out.
type WitnessProps struct {
	Key                  PublicKey
	AccountCreationFee   *Asset
	AccountSubsidyBudget *uint32
	AccountSubsidyDecay  *uint32
	MaximumBlockSize     *uint32
	NewSigningKey        *PublicKey
	HbdExchangeRate      *Price
	HbdInterestRate      *uint16
	Url                  *string
}

// BuildWitnessUpdateOp serializes each property to hex, as the node's JSON form of
// witness_set_properties requires, sorted by property name.
func BuildWitnessUpdateOp(owner string, props WitnessProps) (*WitnessSetPropertiesOperation, error) {
	op := &WitnessSetPropertiesOperation{
		Owner:      owner,
		Extensions: []interface{}{},
	}
	add := func(name string, write func(e *Encoder)) error {
		e := NewEncoder()
		write(e)
		if err := e.Err(); err != nil {
			return fmt.Errorf("witness prop %s: %w", name, err)
		}
		op.Props = append(op.Props, WitnessProp{name, e.Hex()})
		return nil
	}

	fields := []struct {
		name  string
		set   bool
		write func(e *Encoder)
	}{
		{"key", true, props.Key.EncodeTo},
		{"account_creation_fee", props.AccountCreationFee != nil, func(e *Encoder) { props.AccountCreationFee.EncodeTo(e) }},
		{"account_subsidy_budget", props.AccountSubsidyBudget != nil, func(e *Encoder) { e.WriteUint32(*props.AccountSubsidyBudget) }},
		{"account_subsidy_decay", props.AccountSubsidyDecay != nil, func(e *Encoder) { e.WriteUint32(*props.AccountSubsidyDecay) }},
		{"maximum_block_size", props.MaximumBlockSize != nil, func(e *Encoder) { e.WriteUint32(*props.MaximumBlockSize) }},
		{"new_signing_key", props.NewSigningKey != nil, func(e *Encoder) { props.NewSigningKey.EncodeTo(e) }},
		{"hbd_exchange_rate", props.HbdExchangeRate != nil, func(e *Encoder) { props.HbdExchangeRate.EncodeTo(e) }},
		{"hbd_interest_rate", props.HbdInterestRate != nil, func(e *Encoder) { e.WriteUint16(*props.HbdInterestRate) }},
		{"url", props.Url != nil, func(e *Encoder) { e.WriteString(*props.Url) }},
	}
	for _, f := range fields {
		if !f.set {
			continue
		}
		if err := add(f.name, f.write); err != nil {
			return nil, err
		}
	}

	sort.Slice(op.Props, func(i, j int) bool {
		return op.Props[i][0] < op.Props[j][0]
	})
	return op, nil
}
