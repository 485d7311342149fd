// Package i18n localizes the user-visible strings produced by the
// notification pipeline and the OTP verification sheet.
//
// Message catalogs are YAML documents keyed by language code; the package
// embeds English and Vietnamese catalogs covering toast titles, transfer
// notification lines, and OTP alerts. Keys are dot-separated paths into the
// catalog and templates use %{name} placeholders:
//
//	tr, _ := i18n.NewDefaultTranslator()
//	tr.T("vi", "otp.resend_after", "seconds", "42")
//
// Amount formatting goes through golang.org/x/text so digit grouping follows
// the locale: i18n.FormatVND("vi", 1500000) renders "1.500.000 ₫".
package i18n
