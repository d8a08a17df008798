package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"studydocs/internal/identity"
	"studydocs/internal/logging"
	"studydocs/internal/model"
	repoMocks "studydocs/internal/repository/mocks"
	"studydocs/internal/storage"
	storeMocks "studydocs/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pngUpload(override string) UploadInput {
	return UploadInput{Reader: bytes.NewReader(pngBytes), Filename: "me.png", ContentType: "image/png", Size: int64(len(pngBytes)), OwnerOverride: override}
}

func TestAvatarService_ReplaceAvatar(t *testing.T) {
	ctx := context.Background()
	oldAvatar := &model.StorageLocation{Backend: model.BackendRemote, Key: "avatars/old.png"}
	isNewKey := mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "avatars/") && strings.HasSuffix(key, ".png") && key != oldAvatar.Key
	})
	isNewLoc := mock.MatchedBy(func(loc model.StorageLocation) bool {
		return loc.Backend == model.BackendRemote && strings.HasPrefix(loc.Key, "avatars/")
	})

	tests := []struct {
		name       string
		caller     identity.Caller
		in         UploadInput
		setupMocks func(mStore *storeMocks.MockStorage, mProfiles *repoMocks.MockProfileRepository)
		wantErr    error
	}{
		{
			name:   "new avatar replaces old one after swap",
			caller: studentA,
			in:     pngUpload(""),
			setupMocks: func(mStore *storeMocks.MockStorage, mProfiles *repoMocks.MockProfileRepository) {
				mStore.On("Kind").Return(model.BackendRemote)
				mStore.On("Put", ctx, isNewKey, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
				mProfiles.On("SwapAvatar", ctx, ownerA, isNewLoc).Return(oldAvatar, nil)
				mStore.On("Delete", mock.Anything, "avatars/old.png").Return(nil)
			},
		},
		{
			name:   "first avatar deletes nothing",
			caller: studentA,
			in:     pngUpload(""),
			setupMocks: func(mStore *storeMocks.MockStorage, mProfiles *repoMocks.MockProfileRepository) {
				mStore.On("Kind").Return(model.BackendRemote)
				mStore.On("Put", ctx, isNewKey, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
				mProfiles.On("SwapAvatar", ctx, ownerA, isNewLoc).Return(nil, nil)
			},
		},
		{
			name:   "admin sets avatar for a student",
			caller: admin,
			in:     pngUpload(ownerC),
			setupMocks: func(mStore *storeMocks.MockStorage, mProfiles *repoMocks.MockProfileRepository) {
				mStore.On("Kind").Return(model.BackendRemote)
				mStore.On("Put", ctx, isNewKey, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
				mProfiles.On("SwapAvatar", ctx, ownerC, isNewLoc).Return(nil, nil)
			},
		},
		{
			name:   "swap failure keeps old avatar and removes new blob",
			caller: studentA,
			in:     pngUpload(""),
			setupMocks: func(mStore *storeMocks.MockStorage, mProfiles *repoMocks.MockProfileRepository) {
				mStore.On("Kind").Return(model.BackendRemote)
				mStore.On("Put", ctx, isNewKey, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
				mProfiles.On("SwapAvatar", ctx, ownerA, isNewLoc).Return(nil, errors.New("db fail"))
				mStore.On("Delete", mock.Anything, isNewKey).Return(nil)
			},
			wantErr: errors.New("swap avatar: db fail"),
		},
		{
			name:   "missing profile",
			caller: admin,
			in:     pngUpload(ownerC),
			setupMocks: func(mStore *storeMocks.MockStorage, mProfiles *repoMocks.MockProfileRepository) {
				mStore.On("Kind").Return(model.BackendRemote)
				mStore.On("Put", ctx, isNewKey, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
				mProfiles.On("SwapAvatar", ctx, ownerC, isNewLoc).Return(nil, sql.ErrNoRows)
				mStore.On("Delete", mock.Anything, isNewKey).Return(nil)
			},
			wantErr: identity.ErrProfileNotFound,
		},
		{
			name:       "documents are not avatars",
			caller:     studentA,
			in:         UploadInput{Reader: bytes.NewReader(pdfBytes), Filename: "cv.pdf", Size: int64(len(pdfBytes))},
			setupMocks: func(mStore *storeMocks.MockStorage, mProfiles *repoMocks.MockProfileRepository) {},
			wantErr:    ErrFileTypeNotAllowed,
		},
		{
			name:   "storage failure leaves profile untouched",
			caller: studentA,
			in:     pngUpload(""),
			setupMocks: func(mStore *storeMocks.MockStorage, mProfiles *repoMocks.MockProfileRepository) {
				mStore.On("Kind").Return(model.BackendRemote)
				mStore.On("Put", ctx, isNewKey, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, errors.New("bucket gone"))
			},
			wantErr: errors.New("upload to storage: bucket gone"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mProfiles := new(repoMocks.MockProfileRepository)
			svc := NewAvatarService(mStore, mProfiles, testStorageConfig, logging.Nop())

			tt.setupMocks(mStore, mProfiles)

			p, err := svc.ReplaceAvatar(ctx, tt.caller, tt.in)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr.Error(), err.Error())
				assert.Nil(t, p)
			} else {
				require.NoError(t, err)
				require.NotNil(t, p.Avatar)
				assert.True(t, strings.HasPrefix(p.Avatar.Key, "avatars/"))
			}
			mStore.AssertExpectations(t)
			mProfiles.AssertExpectations(t)
		})
	}
}
