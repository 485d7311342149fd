package realtime

import (
	"strings"
	"time"

	"github.com/dragonlab/mimokit/pkg/i18n"
	"github.com/dragonlab/mimokit/pkg/notifications"
)

// sentAtLayouts are the timestamp shapes the backend has been seen to emit.
var sentAtLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

const displayTimeLayout = "02/01/2006 15:04"

// Formatter turns transfer events into localized notification inputs.
type Formatter struct {
	tr   *i18n.Translator
	lang string
}

// NewFormatter creates a formatter for the given language.
func NewFormatter(tr *i18n.Translator, lang string) (*Formatter, error) {
	if tr == nil {
		return nil, ErrNilTranslator
	}
	if lang == "" {
		lang = i18n.DefaultLanguage
	}
	return &Formatter{tr: tr, lang: lang}, nil
}

// Format renders the event into a notification input. Buys lead with the
// local-currency amount paid followed by the stablecoin received; sells are
// the inverse. Unknown types fall back to a generic amount line.
func (f *Formatter) Format(ev *TransferCompletedEvent) notifications.Input {
	vnd := i18n.FormatVND(f.lang, f.paidVND(ev))
	usdt := i18n.FormatUSDT(f.lang, ev.AmountUSDT)

	var lines []string
	switch ev.Type {
	case TransferTypeBuy:
		lines = append(lines, f.tr.T(f.lang, "transfer.buy_line", "vnd", vnd, "usdt", usdt))
	case TransferTypeSell:
		lines = append(lines, f.tr.T(f.lang, "transfer.sell_line", "usdt", usdt, "vnd", vnd))
	default:
		lines = append(lines, f.tr.T(f.lang, "transfer.generic_line", "usdt", usdt, "vnd", vnd))
	}

	lines = append(lines, f.tr.T(f.lang, "transfer.rate_fee",
		"rate", i18n.FormatNumber(f.lang, ev.Rate),
		"fee", i18n.FormatVND(f.lang, ev.FeeVND),
		"fee_percent", i18n.FormatNumber(f.lang, ev.FeePercent),
	))

	if ev.BankAccount != "" {
		lines = append(lines, f.tr.T(f.lang, "transfer.account",
			"account", ev.BankAccount,
			"bank", ev.BankName,
			"network", ev.Network,
		))
	}
	if ev.Address != "" {
		lines = append(lines, f.tr.T(f.lang, "transfer.wallet", "wallet", shorten(ev.Address)))
	}
	if ev.TransactionHash != "" {
		lines = append(lines, f.tr.T(f.lang, "transfer.tx", "tx", shorten(ev.TransactionHash)))
	}
	if ev.Note != "" {
		lines = append(lines, f.tr.T(f.lang, "transfer.note", "note", ev.Note))
	}
	if ev.SentAt != "" {
		lines = append(lines, f.tr.T(f.lang, "transfer.time", "time", f.displayTime(ev.SentAt)))
	}

	titleKey := "transfer.title"
	if ev.Status == TransferStatusSuccess {
		titleKey = "transfer.title_success"
	}

	return notifications.Input{
		Title:    f.tr.T(f.lang, titleKey),
		Message:  strings.Join(lines, "\n"),
		Severity: ev.Severity(),
		Raw:      ev,
	}
}

// paidVND prefers the settled amount when present.
func (f *Formatter) paidVND(ev *TransferCompletedEvent) float64 {
	if ev.AmountVNDReal > 0 {
		return ev.AmountVNDReal
	}
	return ev.AmountVND
}

func (f *Formatter) displayTime(sentAt string) string {
	for _, layout := range sentAtLayouts {
		if ts, err := time.Parse(layout, sentAt); err == nil {
			return ts.Format(displayTimeLayout)
		}
	}
	return sentAt
}

// shorten abbreviates long hashes and addresses for display.
func shorten(s string) string {
	if len(s) <= 14 {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}
