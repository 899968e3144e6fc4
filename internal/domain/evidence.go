package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type signatureEvidence struct {
	LeaseID       string          `json:"lease_id"`
	Role          PartyRole       `json:"role"`
	SignerID      string          `json:"signer_id"`
	SignedAt      string          `json:"signed_at"`
	SignatureType string          `json:"signature_type"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	ImageURL      string          `json:"image_url,omitempty"`
	IPAddress     string          `json:"ip_address"`
	UserAgent     string          `json:"user_agent"`
}

// SignatureEvidenceHash is the hex SHA-256 of the canonical JSON describing a
// signature act. Field order is fixed by the struct, so equal inputs always
// produce the same digest.
func SignatureEvidenceHash(leaseID uuid.UUID, role PartyRole, signer uuid.UUID, slot SignatureSlot) string {
	doc := signatureEvidence{
		LeaseID:       leaseID.String(),
		Role:          role,
		SignerID:      signer.String(),
		SignedAt:      slot.SignedAt.UTC().Format(time.RFC3339Nano),
		SignatureType: slot.SignatureType,
		Payload:       compactJSON(slot.Payload),
		ImageURL:      slot.ImageURL,
		IPAddress:     slot.IPAddress,
		UserAgent:     slot.UserAgent,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		// payload failed to re-encode; hash without it
		doc.Payload = nil
		raw, _ = json.Marshal(doc)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func compactJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return raw
	}
	out, err := json.Marshal(v)
	if err != nil {
		return raw
	}
	return out
}
