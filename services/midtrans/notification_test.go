package midtrans

import (
	"testing"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		status string
		want   Outcome
	}{
		{StatusCapture, OutcomeSuccess},
		{StatusSettlement, OutcomeSuccess},
		{StatusDeny, OutcomeFailed},
		{StatusCancel, OutcomeFailed},
		{StatusExpire, OutcomeFailed},
		{StatusFailure, OutcomeFailed},
		{StatusPending, OutcomeUnchanged},
		{"refund", OutcomeUnchanged},
		{"", OutcomeUnchanged},
	}

	for _, tt := range tests {
		if got := MapStatus(tt.status); got != tt.want {
			t.Errorf("MapStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestVerifySignature(t *testing.T) {
	n := Notification{
		OrderID:     "8f1c0a2e-order",
		StatusCode:  "200",
		GrossAmount: "280000.00",
	}
	n.SignatureKey = Signature(n.OrderID, n.StatusCode, n.GrossAmount, "server-key")

	if err := n.VerifySignature("server-key"); err != nil {
		t.Errorf("expected valid signature, got %v", err)
	}
	if err := n.VerifySignature("other-key"); err != ErrInvalidSignature {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}

	n.GrossAmount = "1.00"
	if err := n.VerifySignature("server-key"); err != ErrInvalidSignature {
		t.Errorf("tampered amount must fail, got %v", err)
	}
}

func TestVerifySignatureMissing(t *testing.T) {
	n := Notification{OrderID: "x", StatusCode: "200", GrossAmount: "1"}
	if err := n.VerifySignature("server-key"); err != ErrInvalidSignature {
		t.Errorf("missing signature must fail, got %v", err)
	}
}
