package midtrans

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

var ErrInvalidSignature = errors.New("invalid notification signature")

// Gateway transaction statuses
const (
	StatusCapture    = "capture"
	StatusSettlement = "settlement"
	StatusPending    = "pending"
	StatusDeny       = "deny"
	StatusCancel     = "cancel"
	StatusExpire     = "expire"
	StatusFailure    = "failure"
)

// Outcome is the local effect of a gateway status
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeSuccess
	OutcomeFailed
)

// Notification is the HTTP notification body sent by Midtrans
type Notification struct {
	TransactionStatus string `json:"transaction_status"`
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	TransactionTime   string `json:"transaction_time"`
}

// MapStatus translates a gateway status into its local outcome
func MapStatus(status string) Outcome {
	switch status {
	case StatusCapture, StatusSettlement:
		return OutcomeSuccess
	case StatusDeny, StatusCancel, StatusExpire, StatusFailure:
		return OutcomeFailed
	default:
		return OutcomeUnchanged
	}
}

// Signature computes SHA512(order_id + status_code + gross_amount + server_key)
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature checks the notification's signature_key against serverKey
func (n *Notification) VerifySignature(serverKey string) error {
	if n.SignatureKey == "" || serverKey == "" {
		return ErrInvalidSignature
	}
	expected := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}
