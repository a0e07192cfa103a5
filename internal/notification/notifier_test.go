package notification

import (
	"strings"
	"testing"
)

func TestRender_TwoFactorCode(t *testing.T) {
	body, err := Render(Message{
		Template: "two-factor-code",
		Vars: map[string]any{
			"name":              "Alice",
			"appName":           "Ticket Office",
			"code":              "123456",
			"expirationMinutes": 5,
		},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(body, "123456") {
		t.Errorf("body does not contain code: %q", body)
	}
	if !strings.Contains(body, "Alice") {
		t.Errorf("body does not contain name: %q", body)
	}
}

func TestRender_PaymentConfirmation(t *testing.T) {
	body, err := Render(Message{
		Template: "payment-confirmation",
		Vars: map[string]any{
			"name":       "Bob",
			"appName":    "Ticket Office",
			"offerName":  "Family Pass",
			"accountUrl": "http://localhost:5173/account",
		},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(body, "Family Pass") {
		t.Errorf("body does not contain offer name: %q", body)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	if _, err := Render(Message{Template: "no-such-template"}); err == nil {
		t.Fatal("Render should fail for unknown template")
	}
}
