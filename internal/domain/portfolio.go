package domain

// DetailRow is one line of a portfolio category. Amount is a percentage of the
// whole portfolio; nil means the row was left blank.
type DetailRow struct {
	Name     string   `json:"name,omitempty"`
	SizeMode string   `json:"sizeMode,omitempty"`
	Amount   *float64 `json:"amount,omitempty" validate:"omitempty,gte=0,lte=100"`
}

type CashDetail struct {
	DetailRow
	Currency string `json:"currency,omitempty" validate:"omitempty,oneof=JPY USD EUR GBP AUD"`
}

type ListedStockDetail struct {
	DetailRow
	Market string `json:"market,omitempty"`
}

type FundDetail struct {
	DetailRow
	FundType string `json:"fundType,omitempty"`
}

type BondDetail struct {
	DetailRow
	BondType string `json:"bondType,omitempty"`
	Currency string `json:"currency,omitempty"`
	Tenor    string `json:"tenor,omitempty"`
}

type CommodityDetail struct {
	DetailRow
	CommodityType string `json:"commodityType,omitempty" validate:"omitempty,oneof=GOLD SILVER PLATINUM OTHER"`
	Form          string `json:"form,omitempty"`
}

type CryptoDetail struct {
	DetailRow
	Custody string `json:"custody,omitempty"`
}

type OtherDetail struct {
	DetailRow
	InvestmentType string `json:"investmentType,omitempty"`
}

// Category holds the rows entered for one asset class.
type Category[T any] struct {
	Details []T `json:"details" validate:"dive"`
}

// PortfolioSubmission is the payload of the portfolio disclosure form.
type PortfolioSubmission struct {
	SubmittedAt  string                      `json:"submittedAt"`
	FamilyName   string                      `json:"familyName,omitempty"`
	GivenName    string                      `json:"givenName,omitempty"`
	Email        string                      `json:"email,omitempty" validate:"omitempty,email"`
	Cash         Category[CashDetail]        `json:"cash"`
	ListedStocks Category[ListedStockDetail] `json:"listedStocks"`
	Funds        Category[FundDetail]        `json:"funds"`
	Bonds        Category[BondDetail]        `json:"bonds"`
	Commodities  Category[CommodityDetail]   `json:"commodities"`
	Crypto       Category[CryptoDetail]      `json:"crypto"`
	Other        Category[OtherDetail]       `json:"other"`
}

// FullName joins family and given names with a space, skipping blanks.
func (p *PortfolioSubmission) FullName() string {
	switch {
	case p.FamilyName != "" && p.GivenName != "":
		return p.FamilyName + " " + p.GivenName
	case p.FamilyName != "":
		return p.FamilyName
	default:
		return p.GivenName
	}
}
