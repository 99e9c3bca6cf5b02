package stockledger

import (
	"fmt"
	"strings"
)

// AssetType classifies a tradeable instrument.
type AssetType string

const (
	Stock     AssetType = "STOCK"
	ETF       AssetType = "ETF"
	Crypto    AssetType = "CRYPTO"
	Commodity AssetType = "COMMODITY"
)

// ParseAssetType parses an asset type, case insensitive.
func ParseAssetType(s string) (AssetType, error) {
	switch t := AssetType(strings.ToUpper(strings.TrimSpace(s))); t {
	case Stock, ETF, Crypto, Commodity:
		return t, nil
	case "":
		return Stock, nil
	default:
		return "", fmt.Errorf("unknown asset type %q", s)
	}
}

// Asset is the identity of a tradeable instrument.
type Asset struct {
	Symbol   string // unique, upper case
	Name     string
	Type     AssetType
	Currency string // quote currency
	Exchange string
	Sector   string
	Industry string
	Active   bool
}

// NormalizeSymbol trims and upper-cases a ticker symbol.
func NormalizeSymbol(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// NewAsset returns an active asset, its symbol normalized.
func NewAsset(symbol, name string, typ AssetType, currency string) Asset {
	return Asset{
		Symbol:   NormalizeSymbol(symbol),
		Name:     name,
		Type:     typ,
		Currency: currency,
		Active:   true,
	}
}

// Validate checks the asset identity fields.
func (a Asset) Validate() error {
	if a.Symbol == "" {
		return fmt.Errorf("asset symbol is missing")
	}
	if a.Symbol != NormalizeSymbol(a.Symbol) {
		return fmt.Errorf("asset symbol %q is not normalized", a.Symbol)
	}
	if _, err := ParseAssetType(string(a.Type)); err != nil {
		return err
	}
	if err := ValidateCurrency(a.Currency); err != nil {
		return fmt.Errorf("asset %s: %w", a.Symbol, err)
	}
	return nil
}
