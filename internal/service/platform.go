package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/monshare/monshare-backend/internal/models"
)

// PlatformStore is the storage surface for platform verifications.
type PlatformStore interface {
	SavePlatformVerification(ctx context.Context, address, platform string, attestation, verificationData json.RawMessage, summary models.VerificationSummary) error
	GetUserPlatforms(ctx context.Context, address string) ([]*models.PlatformData, error)
}

// PlatformService records attestation-backed platform verifications and
// reports a user's connected platforms.
type PlatformService struct {
	store  PlatformStore
	logger *zap.Logger
}

// NewPlatformService creates a platform service
func NewPlatformService(store PlatformStore, logger *zap.Logger) *PlatformService {
	return &PlatformService{store: store, logger: logger}
}

// SaveVerification persists a verification result for a user's platform.
// The verification data is interpreted per platform for the VIP snapshot;
// unknown platforms are stored with an Unknown status.
func (s *PlatformService) SaveVerification(ctx context.Context, address, platform string, attestation, verificationData json.RawMessage) error {
	summary := models.ParseVerificationData(platform, verificationData)

	if err := s.store.SavePlatformVerification(ctx, address, platform, attestation, verificationData, summary); err != nil {
		return models.NewDatabaseError("save_platform_verification", err)
	}

	s.logger.Info("Platform verification saved",
		zap.String("address", address),
		zap.String("platform", platform),
		zap.String("vip_status", summary.VIPStatus),
	)
	return nil
}

// GetUserPlatforms returns the user's verified platforms with their latest
// VIP snapshots. A user with no verifications gets an empty slice.
func (s *PlatformService) GetUserPlatforms(ctx context.Context, address string) ([]*models.PlatformData, error) {
	platforms, err := s.store.GetUserPlatforms(ctx, address)
	if err != nil {
		return nil, models.NewDatabaseError("get_user_platforms", err)
	}
	return platforms, nil
}
