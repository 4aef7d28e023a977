package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/goliatone/go-issue-metrics/core"
)

type Verifier interface {
	Verify(ctx context.Context, req core.InboundRequest) error
}

// SchemeHMACVerifier checks a scheme-prefixed hex digest header
// (`sha1=<hex>` or `sha256=<hex>`) against an HMAC over the raw body using the
// injected shared secret. Verification fails closed: a missing header, an
// unrecognized scheme, or an undecodable digest all reject without error
// detail leaking to the caller.
type SchemeHMACVerifier struct {
	Header string
	Secret string
}

func NewSchemeHMACVerifier(header string, secret string) SchemeHMACVerifier {
	return SchemeHMACVerifier{
		Header: strings.TrimSpace(header),
		Secret: secret,
	}
}

func (v SchemeHMACVerifier) Verify(_ context.Context, req core.InboundRequest) error {
	header := strings.TrimSpace(headerValue(req.Headers, v.Header))
	if header == "" {
		return fmt.Errorf("webhooks: %s signature header is required", strings.TrimSpace(v.Header))
	}
	if strings.TrimSpace(v.Secret) == "" {
		return fmt.Errorf("webhooks: signature secret is required")
	}

	scheme, digest, found := strings.Cut(header, "=")
	if !found {
		return fmt.Errorf("webhooks: signature header is missing a scheme prefix")
	}
	digest = strings.TrimSpace(digest)
	if digest == "" {
		return fmt.Errorf("webhooks: signature value is required")
	}

	algorithm, err := digestAlgorithm(scheme)
	if err != nil {
		return err
	}

	decoded, err := hex.DecodeString(digest)
	if err != nil {
		return fmt.Errorf("webhooks: decode hex signature: %w", err)
	}

	mac := hmac.New(algorithm, []byte(v.Secret))
	_, _ = mac.Write(req.Body)
	expected := mac.Sum(nil)

	if subtle.ConstantTimeCompare(decoded, expected) != 1 {
		return fmt.Errorf("webhooks: signature verification failed")
	}
	return nil
}

func digestAlgorithm(scheme string) (func() hash.Hash, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "sha1":
		return sha1.New, nil
	case "sha256":
		return sha256.New, nil
	default:
		return nil, fmt.Errorf("webhooks: unsupported signature scheme %q", strings.TrimSpace(scheme))
	}
}

func headerValue(headers map[string]string, key string) string {
	if len(headers) == 0 {
		return ""
	}
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

var _ Verifier = (SchemeHMACVerifier{})
