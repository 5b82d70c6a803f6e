package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Platform identifiers the marketplace knows how to interpret verification
// data for. Anything else is stored opaque and reported as Unknown.
const (
	PlatformBilibili = "bilibili"
	PlatformYouku    = "youku"
)

// PlatformVerification is a user's attestation-backed proof of holding a
// membership on a platform. The attestation blob is opaque; it is produced
// and checked by the external zkTLS network.
type PlatformVerification struct {
	ID               uuid.UUID       `json:"id"`
	Address          string          `json:"address"`
	Platform         string          `json:"platform"`
	IsConnected      bool            `json:"isConnected"`
	VerificationData json.RawMessage `json:"verificationData,omitempty"`
	Attestation      json.RawMessage `json:"attestation,omitempty"`
	VerifiedAt       time.Time       `json:"verifiedAt"`
	ExpiresAt        *time.Time      `json:"expiresAt,omitempty"`
}

// PlatformStatus is one point-in-time interpretation of a verification's
// data: the VIP standing and its expiry.
type PlatformStatus struct {
	ID             uuid.UUID       `json:"id"`
	VerificationID uuid.UUID       `json:"verificationId"`
	Platform       string          `json:"platform"`
	VIPStatus      string          `json:"vipStatus"`
	Level          string          `json:"level,omitempty"`
	ExpiryDate     *time.Time      `json:"expiryDate,omitempty"`
	RawData        json.RawMessage `json:"-"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// PlatformData is the API view of a user's verified platform.
type PlatformData struct {
	Platform    string          `json:"platform"`
	IsConnected bool            `json:"isConnected"`
	Data        string          `json:"data"`
	Attestation json.RawMessage `json:"attestation"`
	VerifiedAt  string          `json:"verifiedAt"`
	VIPStatus   string          `json:"vipStatus,omitempty"`
	ExpiryDate  string          `json:"expiryDate,omitempty"`
}

// VerificationSummary is the parsed interpretation of platform verification
// data.
type VerificationSummary struct {
	VIPStatus  string
	Level      string
	ExpiryDate *time.Time
}

// Per-platform payload shapes. Upstream APIs are inconsistent about whether
// numeric fields arrive as numbers or strings, so fields are held raw and
// normalized by rawString.
type bilibiliVerification struct {
	CurrentLevel json.RawMessage `json:"current_level"`
	VipDueDate   json.RawMessage `json:"vipDueDate"`
}

type youkuVerification struct {
	IsVip   json.RawMessage `json:"is_vip"`
	Exptime json.RawMessage `json:"exptime"`
}

// ParseVerificationData interprets raw verification data for a platform.
// Unknown platforms and unparseable payloads yield an Unknown status rather
// than an error; the raw data is still persisted alongside.
func ParseVerificationData(platform string, data []byte) VerificationSummary {
	summary := VerificationSummary{VIPStatus: "Unknown"}
	if len(data) == 0 {
		return summary
	}

	switch platform {
	case PlatformBilibili:
		var v bilibiliVerification
		if err := json.Unmarshal(data, &v); err != nil {
			return summary
		}
		if level := rawString(v.CurrentLevel); level != "" {
			summary.Level = level
			summary.VIPStatus = "Level " + level
		}
		if due := rawString(v.VipDueDate); due != "" {
			if ms, err := strconv.ParseInt(due, 10, 64); err == nil {
				t := time.UnixMilli(ms).UTC()
				summary.ExpiryDate = &t
			}
		}
	case PlatformYouku:
		var v youkuVerification
		if err := json.Unmarshal(data, &v); err != nil {
			return summary
		}
		if rawString(v.IsVip) == "1" {
			summary.VIPStatus = "VIP Active"
		} else {
			summary.VIPStatus = "Not VIP"
		}
		if exp := rawString(v.Exptime); exp != "" {
			if t, ok := parseExpiryTime(exp); ok {
				summary.ExpiryDate = &t
			}
		}
	}

	return summary
}

// rawString normalizes a raw JSON scalar to its string form: quoted strings
// are unquoted, numbers keep their literal text, null becomes empty.
func rawString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if strings.HasPrefix(s, `"`) {
		var unquoted string
		if err := json.Unmarshal(raw, &unquoted); err != nil {
			return ""
		}
		return unquoted
	}
	return s
}

func parseExpiryTime(value string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatExpiryDate renders an expiry for display, matching the "Unknown"
// fallback used across listing and rental views.
func FormatExpiryDate(t *time.Time) string {
	if t == nil {
		return "Unknown"
	}
	return t.Format("2006-01-02")
}
