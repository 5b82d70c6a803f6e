package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/monshare/monshare-backend/internal/auth"
	"github.com/monshare/monshare-backend/internal/models"
)

type stubPlatformDirectory struct {
	platforms   []*models.PlatformData
	saveErr     error
	lastAddress string
	lastData    json.RawMessage
}

func (s *stubPlatformDirectory) SaveVerification(ctx context.Context, address, platform string, attestation, verificationData json.RawMessage) error {
	s.lastAddress = address
	s.lastData = verificationData
	return s.saveErr
}

func (s *stubPlatformDirectory) GetUserPlatforms(ctx context.Context, address string) ([]*models.PlatformData, error) {
	s.lastAddress = address
	return s.platforms, nil
}

type staticSigner string

func (s staticSigner) Sign(signParams string) string { return string(s) }

func authedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	return req.WithContext(auth.ContextWithAddress(req.Context(), "0xowner"))
}

func TestGetPlatformStatusHandler(t *testing.T) {
	directory := &stubPlatformDirectory{platforms: []*models.PlatformData{
		{Platform: models.PlatformBilibili, IsConnected: true, VIPStatus: "Level 6"},
	}}
	handler := GetPlatformStatusHandler(directory, zap.NewNop())

	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, http.MethodGet, "/platforms/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0xowner", directory.lastAddress)
	body := decodeBody(t, rec)
	assert.Contains(t, body, "platforms")
}

func TestGetPlatformStatusHandlerUnauthenticated(t *testing.T) {
	handler := GetPlatformStatusHandler(&stubPlatformDirectory{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/platforms/status", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSaveVerificationHandler(t *testing.T) {
	directory := &stubPlatformDirectory{}
	handler := SaveVerificationHandler(directory, zap.NewNop())

	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, http.MethodPost, "/platforms/verify", map[string]interface{}{
		"platform":         "bilibili",
		"attestation":      map[string]string{"proof": "opaque"},
		"verificationData": map[string]interface{}{"current_level": 6},
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0xowner", directory.lastAddress)
	assert.JSONEq(t, `{"current_level": 6}`, string(directory.lastData))
	body := decodeBody(t, rec)
	assert.Equal(t, "bilibili verification saved successfully", body["message"])
}

func TestSaveVerificationHandlerMissingFields(t *testing.T) {
	handler := SaveVerificationHandler(&stubPlatformDirectory{}, zap.NewNop())

	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, http.MethodPost, "/platforms/verify", map[string]interface{}{
		"platform": "bilibili",
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Missing required fields", body["error"])
}

func TestSignAttestationHandler(t *testing.T) {
	handler := SignAttestationHandler(staticSigner("deadbeef"), zap.NewNop())

	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, http.MethodPost, "/attestation/sign", map[string]string{
		"signParams": `{"appId":"1"}`,
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "deadbeef", body["signResult"])
}

func TestSignAttestationHandlerRequiresParams(t *testing.T) {
	handler := SignAttestationHandler(staticSigner("deadbeef"), zap.NewNop())

	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, http.MethodPost, "/attestation/sign", map[string]string{}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
