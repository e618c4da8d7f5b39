package services

import (
	"errors"
	"testing"

	"finance-ledger/internal/models"
	"finance-ledger/internal/repositories"
	"finance-ledger/internal/repositories/repository_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_ListUsers(t *testing.T) {
	ctrl := gomock.NewController(t)
	userRepo := repository_mocks.NewMockUserRepositoryInterface(ctrl)
	svc := NewUserService(userRepo)

	users := []*models.User{{ID: uuid.New(), Name: "A"}, {ID: uuid.New(), Name: "B"}}
	userRepo.EXPECT().ListUsers(0, DefaultPageSize).Return(users, int64(2), nil)

	got, total, err := svc.ListUsers(-5, 0)
	require.NoError(t, err)
	assert.Equal(t, users, got)
	assert.Equal(t, int64(2), total)

	userRepo.EXPECT().ListUsers(10, MaxPageSize).Return(nil, int64(0), errors.New("boom"))
	_, _, err = svc.ListUsers(10, 1000)
	assert.ErrorContains(t, err, "failed to list users")
}

func TestUserService_GetUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	userRepo := repository_mocks.NewMockUserRepositoryInterface(ctrl)
	svc := NewUserService(userRepo)

	id := uuid.New()
	userRepo.EXPECT().GetByID(id).Return(&models.User{ID: id}, nil)
	user, err := svc.GetUser(id)
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)

	missing := uuid.New()
	userRepo.EXPECT().GetByID(missing).Return(nil, repositories.ErrUserNotFound)
	_, err = svc.GetUser(missing)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		offset, limit         int
		wantOffset, wantLimit int
	}{
		{0, 0, 0, DefaultPageSize},
		{-1, -1, 0, DefaultPageSize},
		{5, 50, 5, 50},
		{0, MaxPageSize + 1, 0, MaxPageSize},
	}

	for _, tt := range tests {
		offset, limit := NormalizePage(tt.offset, tt.limit)
		assert.Equal(t, tt.wantOffset, offset)
		assert.Equal(t, tt.wantLimit, limit)
	}
}
