package service

import (
	"context"
	"errors"
	"testing"

	"sessionbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stubAdmins is an AdminChecker with a fixed admin set
type stubAdmins map[int64]bool

func (s stubAdmins) IsAdmin(_ context.Context, userID int64) (bool, error) {
	return s[userID], nil
}

type failingAdmins struct{}

func (failingAdmins) IsAdmin(context.Context, int64) (bool, error) {
	return false, errors.New("admin lookup failed")
}

func soldRecord(id, owner int64, payload string) *models.NumberRecord {
	return &models.NumberRecord{
		ID:       id,
		Platform: "telegram",
		Country:  "india",
		Price:    1500,
		Payload:  []byte(payload),
		Used:     true,
		UsedBy:   &owner,
	}
}

func newOTPMocks(admins AdminChecker) (OTPService, *MockNumberRepository, *MockMetricsRecorder) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockNumberRepo := new(MockNumberRepository)
	mockMetrics := new(MockMetricsRecorder)

	mockUoW.SetRepositories(nil, nil, mockNumberRepo, nil, nil, nil)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	return NewOTPService(mockFactory, admins, mockMetrics), mockNumberRepo, mockMetrics
}

func TestOTPService_RevealCode_Owner(t *testing.T) {
	ctx := context.Background()
	service, mockNumberRepo, mockMetrics := newOTPMocks(stubAdmins{})

	mockNumberRepo.On("GetByID", ctx, int64(7)).Return(soldRecord(7, 42, "+14155551234\nYour code is 83920"), nil)
	mockMetrics.On("RecordCodeReveal", true).Return()

	reveal, err := service.RevealCode(ctx, 42, 7)

	require.NoError(t, err)
	assert.True(t, reveal.Found)
	assert.Equal(t, "83920", reveal.Code)
	assert.Equal(t, "+14155551234", reveal.PhoneNumber)
	mockMetrics.AssertExpectations(t)
}

func TestOTPService_RevealCode_NoCodeYet(t *testing.T) {
	ctx := context.Background()
	service, mockNumberRepo, mockMetrics := newOTPMocks(stubAdmins{})

	mockNumberRepo.On("GetByID", ctx, int64(7)).Return(soldRecord(7, 42, "waiting for sms"), nil)
	mockMetrics.On("RecordCodeReveal", false).Return()

	reveal, err := service.RevealCode(ctx, 42, 7)

	require.NoError(t, err)
	assert.False(t, reveal.Found)
	assert.Empty(t, reveal.Code)
	assert.Equal(t, models.PhonePlaceholder, reveal.PhoneNumber)
	mockMetrics.AssertExpectations(t)
}

func TestOTPService_RevealCode_Access(t *testing.T) {
	tests := []struct {
		name        string
		admins      AdminChecker
		record      *models.NumberRecord
		caller      int64
		expectedErr error
		wantErr     bool
	}{
		{name: "unknown record", admins: stubAdmins{}, caller: 42, expectedErr: ErrNumberNotFound, wantErr: true},
		{name: "another buyer", admins: stubAdmins{}, record: soldRecord(7, 42, "1234"), caller: 99, expectedErr: ErrNumberNotOwned, wantErr: true},
		{name: "unsold record", admins: stubAdmins{}, record: &models.NumberRecord{ID: 7, Payload: []byte("1234")}, caller: 42, expectedErr: ErrNumberNotOwned, wantErr: true},
		{name: "admin may reveal any", admins: stubAdmins{99: true}, record: soldRecord(7, 42, "1234"), caller: 99},
		{name: "admin lookup failure", admins: failingAdmins{}, record: soldRecord(7, 42, "1234"), caller: 99, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			service, mockNumberRepo, mockMetrics := newOTPMocks(tt.admins)

			mockNumberRepo.On("GetByID", ctx, int64(7)).Return(tt.record, nil)
			mockMetrics.On("RecordCodeReveal", mock.Anything).Return().Maybe()

			reveal, err := service.RevealCode(ctx, tt.caller, 7)

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "1234", reveal.Code)
				return
			}
			assert.Error(t, err)
			assert.Nil(t, reveal)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			}
			mockMetrics.AssertNotCalled(t, "RecordCodeReveal", mock.Anything)
		})
	}
}
