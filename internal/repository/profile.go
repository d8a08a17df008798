package repository

import (
	"context"

	"studydocs/internal/model"
)

// ProfileRepository reads student profiles and maintains their avatar reference.
type ProfileRepository interface {
	// FindIDByUserID returns the profile ID linked to a principal, or sql.ErrNoRows.
	FindIDByUserID(ctx context.Context, userID string) (string, error)

	// FindByID returns a profile by its ID, or sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.StudentProfile, error)

	// SwapAvatar points the profile at a new avatar blob and returns the location it replaced
	// (nil when none was set). It returns sql.ErrNoRows if the profile does not exist.
	SwapAvatar(ctx context.Context, id string, loc model.StorageLocation) (*model.StorageLocation, error)
}
