package domain

// Verification purposes. Each purpose owns its own pending-code record, so a
// password-reset request cannot clobber an outstanding registration code.
// Registration, unverified-login re-dispatch and resend all share the register
// purpose: they are one flow.
const (
	PurposeRegister    = "register"
	PurposeReset       = "password_reset"
	PurposeEmailChange = "email_change"
)

// PendingVerification stores an outstanding one-time passcode.
// PK: account_id, SK: purpose. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
// NewEmail is set only for the email_change purpose and holds the candidate
// address; the account's email stays untouched until the code is confirmed.
type PendingVerification struct {
	AccountID string `json:"account_id" dynamodbav:"account_id"`
	Purpose   string `json:"purpose" dynamodbav:"purpose"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	NewEmail  string `json:"new_email,omitempty" dynamodbav:"new_email"`
}
