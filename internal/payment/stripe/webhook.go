package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is how far a webhook timestamp may drift before the
// signature is rejected (replay protection).
const DefaultTolerance = 5 * time.Minute

var (
	// ErrBadSignature is returned when the Stripe-Signature header does not
	// verify against the webhook secret.
	ErrBadSignature = errors.New("stripe: webhook signature verification failed")
	// ErrBadPayload is returned when the webhook body is not a valid event.
	ErrBadPayload = errors.New("stripe: malformed webhook payload")
)

// Event is the subset of a Stripe event this service inspects.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ConstructEvent verifies the signature header against the payload and secret,
// then parses the event. Never process a payload that fails verification.
func ConstructEvent(payload []byte, sigHeader, secret string, tolerance time.Duration, now time.Time) (*Event, error) {
	if err := verifySignature(payload, sigHeader, secret, tolerance, now); err != nil {
		return nil, err
	}
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ErrBadPayload
	}
	if event.Type == "" {
		return nil, ErrBadPayload
	}
	return &event, nil
}

// verifySignature checks the v1 scheme: the header carries t=<unix> and one or
// more v1=<hex HMAC-SHA256 of "<t>.<payload>">. Comparison is constant-time;
// any valid v1 entry within the tolerance window passes.
func verifySignature(payload []byte, sigHeader, secret string, tolerance time.Duration, now time.Time) error {
	if sigHeader == "" || secret == "" {
		return ErrBadSignature
	}

	var timestamp int64 = -1
	var signatures []string
	for _, part := range strings.Split(sigHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return ErrBadSignature
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp < 0 || len(signatures) == 0 {
		return ErrBadSignature
	}

	if tolerance > 0 {
		drift := now.Sub(time.Unix(timestamp, 0))
		if drift < 0 {
			drift = -drift
		}
		if drift > tolerance {
			return ErrBadSignature
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		got, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, got) {
			return nil
		}
	}
	return ErrBadSignature
}

// SignPayload produces a Stripe-Signature header value for the payload, used
// by tests and local tooling to simulate provider deliveries.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

// sessionObject is the part of a checkout.session (or payment_intent) object
// the processor reads.
type sessionObject struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

// TransactionID extracts the correlating transaction id from the event's
// structured metadata, falling back to a raw scan of the payload. Returns ""
// when no id can be found; malformed input never panics.
func (e *Event) TransactionID(payload []byte) string {
	if len(e.Data.Object) > 0 {
		var obj sessionObject
		if err := json.Unmarshal(e.Data.Object, &obj); err == nil {
			if id, ok := obj.Metadata["transaction_id"]; ok && id != "" {
				return id
			}
		}
	}
	return scanTransactionID(payload)
}

// SessionID extracts the provider session handle from the event object, if any.
func (e *Event) SessionID() string {
	if len(e.Data.Object) == 0 {
		return ""
	}
	var obj sessionObject
	if err := json.Unmarshal(e.Data.Object, &obj); err != nil {
		return ""
	}
	return obj.ID
}

// scanTransactionID scans raw JSON text for a "transaction_id" string value.
// Best-effort fallback when structured metadata is unavailable.
func scanTransactionID(payload []byte) string {
	s := string(payload)
	idx := strings.Index(s, `"transaction_id"`)
	if idx < 0 {
		return ""
	}
	rest := s[idx+len(`"transaction_id"`):]
	start := strings.Index(rest, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(rest[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return rest[start+1 : start+1+end]
}
