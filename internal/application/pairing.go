package application

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"homectl/internal/domain"
)

// PairDevice authorizes every request. Real pairing belongs to an external
// identity provider; nothing here is persisted.
func PairDevice(userID, deviceID string) (domain.User, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(deviceID) == "" {
		return domain.User{}, fmt.Errorf("%w: user and device ids are required", domain.ErrValidation)
	}

	return domain.User{
		ID:           userID,
		Name:         "User",
		DeviceID:     deviceID,
		IsAuthorized: true,
		SessionToken: uuid.NewString(),
	}, nil
}
