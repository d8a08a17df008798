package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studydocs/internal/config"
	"studydocs/internal/identity"
	"studydocs/internal/logging"
	"studydocs/internal/model"
	"studydocs/internal/policy"
	"studydocs/internal/repository"
	"studydocs/internal/storage"
)

var avatarExtensions = []string{"jpg", "jpeg", "png", "gif"}

// AvatarService manages student profile pictures.
type AvatarService interface {
	// ReplaceAvatar stores a new picture for the target student and points the profile at it.
	// The previous picture is removed only after the profile references the new one.
	ReplaceAvatar(ctx context.Context, caller identity.Caller, in UploadInput) (*model.StudentProfile, error)
}

type avatarService struct {
	store    storage.Storage
	profiles repository.ProfileRepository
	maxSize  int64
	allowed  map[string]struct{}
	log      *logging.Logger
	now      func() time.Time
}

// NewAvatarService constructs an AvatarService.
func NewAvatarService(store storage.Storage, profiles repository.ProfileRepository, cfg config.StorageConfig, log *logging.Logger) AvatarService {
	return &avatarService{
		store:    store,
		profiles: profiles,
		maxSize:  maxUploadBytes(cfg),
		allowed:  allowSet(avatarExtensions),
		log:      log,
		now:      time.Now,
	}
}

func (s *avatarService) ReplaceAvatar(ctx context.Context, caller identity.Caller, in UploadInput) (*model.StudentProfile, error) {
	owner, err := targetOwner(caller, in.OwnerOverride)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeCaller(policy.OpUpload, caller, owner); err != nil {
		return nil, err
	}
	body, ext, err := checkFile(in, s.maxSize, s.allowed)
	if err != nil {
		return nil, err
	}

	loc := model.StorageLocation{Backend: s.store.Kind(), Key: "avatars/" + uuid.New().String() + "." + ext}
	if _, err := s.store.Put(ctx, loc.Key, body, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: ContentTypeFor(ext, ""),
	}); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	prev, err := s.profiles.SwapAvatar(ctx, owner, loc)
	if err != nil {
		_ = cleanupBlob(ctx, s.store, s.log, "avatar", loc.Key)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identity.ErrProfileNotFound
		}
		return nil, fmt.Errorf("swap avatar: %w", err)
	}

	if prev != nil && *prev != loc {
		if prev.Backend == s.store.Kind() {
			_ = cleanupBlob(ctx, s.store, s.log, "avatar", prev.Key)
		} else {
			s.log.Warn("avatar", "previous_avatar_kept", map[string]any{
				"student_id": owner,
				"backend":    string(prev.Backend),
			})
		}
	}

	s.log.Info("avatar", "avatar_replaced", map[string]any{"student_id": owner, "uploaded_by": caller.ID()})
	return &model.StudentProfile{ID: owner, Avatar: &loc, UpdatedAt: s.now().UTC()}, nil
}

// findProfile loads a student profile, mapping a missing row to ErrProfileNotFound.
func findProfile(ctx context.Context, profiles repository.ProfileRepository, studentID string) (*model.StudentProfile, error) {
	if studentID == "" {
		return nil, ErrIDRequired
	}
	if _, err := uuid.Parse(studentID); err != nil {
		return nil, ErrInvalidOwnerID
	}
	p, err := profiles.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identity.ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}
