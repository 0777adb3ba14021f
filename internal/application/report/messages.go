package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/lead-capture-api/internal/domain"
)

var jst = time.FixedZone("Asia/Tokyo", 9*60*60)

const jstLayout = "2006/1/2 15:04:05"

type mail struct {
	subject string
	body    string
}

func registeredAdminMail(rec *domain.PendingRegistration, at time.Time) mail {
	postal, lines := domain.SplitAddress(rec.Address)
	var b strings.Builder
	b.WriteString("【特別レポート申込】受信データ\n\n")
	fmt.Fprintf(&b, "受信日時: %s\n", at.In(jst).Format(jstLayout))
	fmt.Fprintf(&b, "お名前: %s\n", rec.Name)
	fmt.Fprintf(&b, "メールアドレス: %s\n", rec.Email)
	fmt.Fprintf(&b, "郵便番号: %s\n", postal)
	fmt.Fprintf(&b, "住所: %s\n", lines)
	b.WriteString("免責事項同意: 同意\n")
	return mail{
		subject: fmt.Sprintf("【特別レポート申込】%s 様", rec.Name),
		body:    b.String(),
	}
}

func verifiedAdminMail(rec *domain.PendingRegistration, at time.Time) mail {
	postal, lines := domain.SplitAddress(rec.Address)
	var b strings.Builder
	b.WriteString("【特別レポート申込】本人確認完了\n\n")
	fmt.Fprintf(&b, "完了日時: %s\n", at.In(jst).Format(jstLayout))
	fmt.Fprintf(&b, "お名前: %s\n", rec.Name)
	fmt.Fprintf(&b, "メールアドレス: %s\n", rec.Email)
	fmt.Fprintf(&b, "郵便番号: %s\n", postal)
	fmt.Fprintf(&b, "住所: %s\n", lines)
	fmt.Fprintf(&b, "電話番号: %s\n", rec.Phone)
	b.WriteString("※2〜3日以内にレポートを送付してください。\n")
	return mail{
		subject: fmt.Sprintf("【レポート申込】本人確認完了 %s 様", rec.Name),
		body:    b.String(),
	}
}

func userCompletedMail(rec *domain.PendingRegistration, brand, company string) mail {
	var b strings.Builder
	fmt.Fprintf(&b, "%s 様\n\n", rec.Name)
	fmt.Fprintf(&b, "この度は、%s 特別レポートにお申し込みいただき、\n", brand)
	b.WriteString("誠にありがとうございます。\n\n")
	b.WriteString("ご本人様確認が完了しました。\n\n")
	b.WriteString("登録情報確認後、担当スタッフより2〜3日以内にレポートを送付させていただきます。\n")
	b.WriteString("今しばらくお待ちください。\n\n")
	if company != "" {
		b.WriteString(company + "\n")
	}
	b.WriteString("（本メールは自動送信です）\n")
	return mail{
		subject: fmt.Sprintf("【%s】特別レポートのお申し込みを承りました", brand),
		body:    b.String(),
	}
}
