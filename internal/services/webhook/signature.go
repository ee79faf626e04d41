package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"payflow/internal/models"
)

// SignatureHeader carries the hex HMAC-SHA256 of the canonical body.
const SignatureHeader = "X-Webhook-Signature"

// CanonicalBody renders the stored payload as canonical JSON: object keys
// in sorted order, no extraneous whitespace. Receivers verify the
// signature against exactly these bytes.
func CanonicalBody(payload models.JSON) ([]byte, error) {
	return json.Marshal(map[string]interface{}(payload))
}

// Sign computes the hex HMAC-SHA256 of body keyed by the merchant's
// webhook secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches body under secret.
func VerifySignature(body []byte, secret, signature string) bool {
	return hmac.Equal([]byte(Sign(body, secret)), []byte(signature))
}
