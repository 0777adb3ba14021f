package portfolio

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lead-capture-api/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	rule      = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
	shortRule = "━━━━━━━━━━━━━━━━━━"
	unnamed   = "（未入力）"
)

var jst = time.FixedZone("Asia/Tokyo", 9*60*60)

// FormatPercentage renders whole numbers without a fraction and everything
// else rounded to one decimal place.
func FormatPercentage(amount float64) string {
	d := decimal.NewFromFloat(amount)
	if d.IsInteger() {
		return d.String() + "%"
	}
	return d.Round(1).String() + "%"
}

// formatSubmittedAt renders an RFC 3339 timestamp in JST. Anything else is
// returned unchanged.
func formatSubmittedAt(raw string) string {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.In(jst).Format("2006/01/02 15:04")
}

func commodityLabel(t string) string {
	switch t {
	case "GOLD":
		return "金"
	case "SILVER":
		return "銀"
	case "PLATINUM":
		return "プラチナ"
	case "OTHER":
		return "その他"
	default:
		return t
	}
}

type line struct {
	label  string
	amount *float64
}

func writeSection(b *strings.Builder, title string, lines []line) {
	b.WriteString(title + "\n\n")
	for _, l := range lines {
		if l.amount == nil {
			continue
		}
		fmt.Fprintf(b, "・%s：%s\n", l.label, FormatPercentage(*l.amount))
	}
	b.WriteString("\n\n")
}

func nameOr(name string) string {
	if name == "" {
		return unnamed
	}
	return name
}

func rows[T any](details []T, row func(T) line) []line {
	out := make([]line, 0, len(details))
	for _, d := range details {
		out = append(out, row(d))
	}
	return out
}

func adminBody(sub *domain.PortfolioSubmission, raw []byte) string {
	var b strings.Builder
	b.WriteString("【資産運用AI分析】受信データ\n\n")
	fmt.Fprintf(&b, "受信日時: %s\n", formatSubmittedAt(sub.SubmittedAt))
	if name := sub.FullName(); name != "" {
		fmt.Fprintf(&b, "お名前: %s\n", name)
	}
	if sub.Email != "" {
		fmt.Fprintf(&b, "メールアドレス: %s\n", sub.Email)
	}
	b.WriteString(rule + "\n\n")

	writeSection(&b, "1・ETF・投資信託・NISA", rows(sub.Funds.Details, func(d domain.FundDetail) line {
		return line{nameOr(d.Name), d.Amount}
	}))
	writeSection(&b, "2・現金・預金", rows(sub.Cash.Details, func(d domain.CashDetail) line {
		currency := d.Currency
		if currency == "" {
			currency = "JPY"
		}
		return line{currency, d.Amount}
	}))
	writeSection(&b, "3・上場株", rows(sub.ListedStocks.Details, func(d domain.ListedStockDetail) line {
		return line{nameOr(d.Name), d.Amount}
	}))
	writeSection(&b, "4・債券", rows(sub.Bonds.Details, func(d domain.BondDetail) line {
		return line{nameOr(d.Name), d.Amount}
	}))
	writeSection(&b, "5・貴金属・コモディティ", rows(sub.Commodities.Details, func(d domain.CommodityDetail) line {
		label := d.Name
		if label == "" {
			label = commodityLabel(d.CommodityType)
		}
		return line{nameOr(label), d.Amount}
	}))
	writeSection(&b, "6・暗号資産", rows(sub.Crypto.Details, func(d domain.CryptoDetail) line {
		return line{nameOr(d.Name), d.Amount}
	}))
	writeSection(&b, "7・その他の投資", rows(sub.Other.Details, func(d domain.OtherDetail) line {
		label := d.Name
		if label == "" {
			label = d.InvestmentType
		}
		return line{nameOr(label), d.Amount}
	}))

	b.WriteString(rule + "\n")
	b.WriteString("\n【JSONデータ】\n")
	b.Write(raw)
	return b.String()
}

func userBody(sub *domain.PortfolioSubmission, brand, company string) string {
	var b strings.Builder
	if name := sub.FullName(); name != "" {
		fmt.Fprintf(&b, "%s 様\n\n", name)
	}
	fmt.Fprintf(&b, "この度は、%s「資産運用AI分析」に\n", brand)
	b.WriteString("お申し込みいただき、誠にありがとうございます。\n\n")
	b.WriteString(shortRule + "\n■ 今後の流れについて\n" + shortRule + "\n\n")
	b.WriteString("① ご入力いただいた内容をもとに、今から分析を行っていきます。\n")
	b.WriteString("② 分析が完了次第、担当者より改めてご連絡いたします。\n")
	b.WriteString("③ レポートの詳細は個人情報が含まれる内容となるため、ご本人確認（SMS認証）を行わせていただきます。\n")
	b.WriteString("④ ご本人確認後、レポートをご覧いただけます。\n\n")
	b.WriteString("目安として3営業日以内にご連絡させていただきます。\n")
	b.WriteString("お楽しみにお待ちください。\n\n")
	b.WriteString(shortRule + "\n■ ご注意事項\n" + shortRule + "\n\n")
	b.WriteString("・本メールは自動送信です。\n")
	b.WriteString("・本メールへの返信ではお問い合わせを受け付けておりません。\n")
	b.WriteString("・内容に心当たりがない場合は、本メールを破棄してください。\n\n")
	b.WriteString(shortRule + "\n\n")
	if company != "" {
		b.WriteString(company + "\n\n")
	}
	b.WriteString("（本メールは自動送信です）\n")
	return b.String()
}

func indentJSON(sub *domain.PortfolioSubmission) ([]byte, error) {
	return json.MarshalIndent(sub, "", "  ")
}
