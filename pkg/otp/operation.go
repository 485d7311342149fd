package otp

// IdentifierKind selects whether the identifier travels as an email or a
// phone number in request bodies.
type IdentifierKind string

const (
	IdentifierEmail IdentifierKind = "email"
	IdentifierPhone IdentifierKind = "phone"
)

// AuthMode distinguishes the auth flows sharing the generic auth operation.
type AuthMode string

const (
	AuthModeAction   AuthMode = "action"
	AuthModeRegister AuthMode = "register"
	AuthModeForgot   AuthMode = "forgot"
)

// Operation is a closed description of one OTP call site: where verify and
// resend requests go and how their bodies are built. Sessions receive an
// Operation at construction, so one state machine serves bank-account
// confirmation, wallet-address confirmation, and auth flows without
// hardcoding URLs per caller.
type Operation struct {
	kind       string
	verifyPath string
	resendPath string
	verifyBody func(identifier string, kind IdentifierKind, code string) map[string]any
	resendBody func(identifier string, kind IdentifierKind) map[string]any
}

// Kind returns the operation kind for logging.
func (o Operation) Kind() string { return o.kind }

func identifierKey(kind IdentifierKind) string {
	if kind == IdentifierPhone {
		return "phone"
	}
	return "email"
}

func bankWalletOperation(kind, otpType string) Operation {
	return Operation{
		kind:       kind,
		verifyPath: "/client/verify-otp-bank-wallet",
		resendPath: "/client/send-otp-bank-wallet",
		verifyBody: func(identifier string, k IdentifierKind, code string) map[string]any {
			return map[string]any{
				identifierKey(k): identifier,
				"type":           otpType,
				"otp":            code,
			}
		},
		resendBody: func(identifier string, k IdentifierKind) map[string]any {
			return map[string]any{
				identifierKey(k): identifier,
				"type":           otpType,
			}
		},
	}
}

// BankAccountOperation confirms linking a bank account.
func BankAccountOperation() Operation {
	return bankWalletOperation("bank_account", "bank")
}

// WalletAddressOperation confirms linking a wallet address.
func WalletAddressOperation() Operation {
	return bankWalletOperation("wallet_address", "wallet")
}

// AuthOperation serves the account flows (register, forgot password, and
// generic sensitive actions). The mode travels as the request "type" so the
// backend issues the right code.
func AuthOperation(mode AuthMode) Operation {
	return Operation{
		kind:       "auth_" + string(mode),
		verifyPath: "/auth/verify-otp",
		resendPath: "/auth/resend-otp",
		verifyBody: func(identifier string, k IdentifierKind, code string) map[string]any {
			return map[string]any{
				identifierKey(k): identifier,
				"type":           string(mode),
				"otp":            code,
			}
		},
		resendBody: func(identifier string, k IdentifierKind) map[string]any {
			return map[string]any{
				"username": identifier,
				"type":     string(k),
			}
		},
	}
}
