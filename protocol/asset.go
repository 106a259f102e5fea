package protocol

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Asset is an amount of a chain token. Amount is in the smallest unit of Symbol.
type Asset struct {
	Amount int64
	Symbol string
}

var assetPrecision = map[string]uint8{
	"HIVE":  3,
	"HBD":   3,
	"VESTS": 6,
	"TESTS": 3,
	"TBD":   3,
	"STEEM": 3,
	"SBD":   3,
}

// The chain still uses the pre-fork symbols in the binary form.
var wireSymbols = map[string]string{
	"HIVE": "STEEM",
	"HBD":  "SBD",
}

const symbolWidth = 7

func PrecisionOf(symbol string) (uint8, bool) {
	p, ok := assetPrecision[symbol]
	return p, ok
}

func NewAsset(amount int64, symbol string) (Asset, error) {
	if _, ok := assetPrecision[symbol]; !ok {
		return Asset{}, fmt.Errorf("unknown asset symbol %q", symbol)
	}
	return Asset{Amount: amount, Symbol: symbol}, nil
}

// ParseAsset reads "<amount> <SYMBOL>". Digits past the symbol's precision are rounded
// half away from zero.
func ParseAsset(s string) (Asset, error) {
	parts := strings.Split(strings.TrimSpace(s), " ")
	if len(parts) != 2 {
		return Asset{}, fmt.Errorf("invalid asset %q", s)
	}
	symbol := parts[1]
	precision, ok := assetPrecision[symbol]
	if !ok {
		return Asset{}, fmt.Errorf("invalid asset symbol %q", symbol)
	}

	num := parts[0]
	negative := strings.HasPrefix(num, "-")
	num = strings.TrimPrefix(num, "-")
	whole, frac, _ := strings.Cut(num, ".")
	if whole == "" || !isDigits(whole) || (strings.Contains(num, ".") && (frac == "" || !isDigits(frac))) {
		return Asset{}, fmt.Errorf("invalid asset amount %q", parts[0])
	}

	roundUp := false
	if len(frac) > int(precision) {
		roundUp = frac[precision] >= '5'
		frac = frac[:precision]
	}
	frac += strings.Repeat("0", int(precision)-len(frac))

	amount, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return Asset{}, fmt.Errorf("invalid asset amount %q: %w", parts[0], err)
	}
	if roundUp {
		if amount == math.MaxInt64 {
			return Asset{}, fmt.Errorf("asset amount %q out of range", parts[0])
		}
		amount++
	}
	if negative {
		amount = -amount
	}
	return Asset{Amount: amount, Symbol: symbol}, nil
}

func MustParseAsset(s string) Asset {
	a, err := ParseAsset(s)
	if err != nil {
		panic(err)
	}
	return a
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

func (a Asset) Precision() uint8 {
	return assetPrecision[a.Symbol]
}

func (a Asset) String() string {
	p := int(a.Precision())
	amount := a.Amount
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	if p == 0 {
		return sign + digits + " " + a.Symbol
	}
	if len(digits) <= p {
		digits = strings.Repeat("0", p-len(digits)+1) + digits
	}
	return sign + digits[:len(digits)-p] + "." + digits[len(digits)-p:] + " " + a.Symbol
}

func (a Asset) Add(b Asset) (Asset, error) {
	if a.Symbol != b.Symbol {
		return Asset{}, fmt.Errorf("cannot add %s to %s", b.Symbol, a.Symbol)
	}
	return Asset{Amount: a.Amount + b.Amount, Symbol: a.Symbol}, nil
}

func (a Asset) Sub(b Asset) (Asset, error) {
	if a.Symbol != b.Symbol {
		return Asset{}, fmt.Errorf("cannot subtract %s from %s", b.Symbol, a.Symbol)
	}
	return Asset{Amount: a.Amount - b.Amount, Symbol: a.Symbol}, nil
}

// EncodeTo writes int64 amount, uint8 precision and the symbol padded to 7 bytes.
func (a Asset) EncodeTo(e *Encoder) {
	precision, ok := assetPrecision[a.Symbol]
	if !ok {
		e.Fail(fmt.Errorf("unknown asset symbol %q", a.Symbol))
	}
	symbol := a.Symbol
	if w, ok := wireSymbols[symbol]; ok {
		symbol = w
	}
	var sym [symbolWidth]byte
	copy(sym[:], symbol)

	e.WriteInt64(a.Amount)
	e.WriteUint8(precision)
	e.WriteFixed(sym[:])
}

func (a Asset) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.String())), nil
}

func (a *Asset) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("asset must be a json string: %w", err)
	}
	parsed, err := ParseAsset(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Price is an exchange rate expressed as base per quote.
type Price struct {
	Base  Asset `json:"base"`
	Quote Asset `json:"quote"`
}

func (p Price) String() string {
	return p.Base.String() + ":" + p.Quote.String()
}

// Convert exchanges a into the other side of the price, truncating toward zero.
func (p Price) Convert(a Asset) (Asset, error) {
	switch a.Symbol {
	case p.Base.Symbol:
		if p.Base.Amount == 0 {
			return Asset{}, fmt.Errorf("price base is zero")
		}
		return Asset{Amount: mulDiv(a.Amount, p.Quote.Amount, p.Base.Amount), Symbol: p.Quote.Symbol}, nil
	case p.Quote.Symbol:
		if p.Quote.Amount == 0 {
			return Asset{}, fmt.Errorf("price quote is zero")
		}
		return Asset{Amount: mulDiv(a.Amount, p.Base.Amount, p.Quote.Amount), Symbol: p.Base.Symbol}, nil
	}
	return Asset{}, fmt.Errorf("cannot convert %s with price %s", a.Symbol, p)
}

func mulDiv(a, b, c int64) int64 {
	r := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	return r.Quo(r, big.NewInt(c)).Int64()
}

func (p Price) EncodeTo(e *Encoder) {
	p.Base.EncodeTo(e)
	p.Quote.EncodeTo(e)
}
