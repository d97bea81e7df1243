package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stakesol/api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) Update(ctx context.Context, accountID string, updates map[string]interface{}) error {
	return m.Called(ctx, accountID, updates).Error(0)
}

type mockVerificationStore struct{ mock.Mock }

func (m *mockVerificationStore) Put(ctx context.Context, v *domain.PendingVerification) error {
	return m.Called(ctx, v).Error(0)
}
func (m *mockVerificationStore) Get(ctx context.Context, accountID, purpose string) (*domain.PendingVerification, error) {
	args := m.Called(ctx, accountID, purpose)
	if v, _ := args.Get(0).(*domain.PendingVerification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockVerificationStore) Delete(ctx context.Context, accountID, purpose string) error {
	return m.Called(ctx, accountID, purpose).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockAvatarStore struct{ mock.Mock }

func (m *mockAvatarStore) UploadBase64(ctx context.Context, key, b64Data string) (string, error) {
	args := m.Called(ctx, key, b64Data)
	return args.String(0), args.Error(1)
}
func (m *mockAvatarStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}
func (m *mockAvatarStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// --- builder ---

func newService(as *mockAccountStore, vs *mockVerificationStore, ml *mockMailer, av *mockAvatarStore) Service {
	deps := ServiceDeps{
		AccountRepo:      as,
		VerificationRepo: vs,
		Mailer:           ml,
		OTPTTL:           10 * time.Minute,
	}
	if av != nil {
		deps.AvatarStore = av
	}
	return NewService(deps)
}

func strPtr(s string) *string { return &s }

// --- Get ---

func TestGet_UnknownAccount(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, "acc1").Return(nil, domain.ErrNotFound)

	svc := newService(as, nil, nil, nil)
	_, err := svc.Get(context.Background(), "acc1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGet_WithAvatar_PresignsURL(t *testing.T) {
	as := &mockAccountStore{}
	av := &mockAvatarStore{}

	as.On("Get", mock.Anything, "acc1").Return(&domain.Account{
		AccountID:   "acc1",
		DisplayName: "Ana",
		Email:       "a@b.com",
		AvatarKey:   "avatars/acc1",
	}, nil)
	av.On("PresignedURL", mock.Anything, "avatars/acc1", mock.Anything).
		Return("https://bucket/avatars/acc1?sig=x", nil)

	svc := newService(as, nil, nil, av)
	p, err := svc.Get(context.Background(), "acc1")

	require.NoError(t, err)
	assert.Equal(t, "Ana", p.DisplayName)
	assert.Equal(t, "https://bucket/avatars/acc1?sig=x", p.AvatarURL)
}

func TestGet_PresignFailure_OmitsURL(t *testing.T) {
	as := &mockAccountStore{}
	av := &mockAvatarStore{}

	as.On("Get", mock.Anything, "acc1").Return(&domain.Account{
		AccountID: "acc1",
		Email:     "a@b.com",
		AvatarKey: "avatars/acc1",
	}, nil)
	av.On("PresignedURL", mock.Anything, "avatars/acc1", mock.Anything).
		Return("", errors.New("s3 down"))

	svc := newService(as, nil, nil, av)
	p, err := svc.Get(context.Background(), "acc1")

	require.NoError(t, err)
	assert.Empty(t, p.AvatarURL)
}

// --- Update ---

func TestUpdate_DisplayName_AppliesImmediately(t *testing.T) {
	as := &mockAccountStore{}

	as.On("Get", mock.Anything, "acc1").
		Return(&domain.Account{AccountID: "acc1", DisplayName: "Old", Email: "a@b.com"}, nil)
	as.On("Update", mock.Anything, "acc1", map[string]interface{}{fieldDisplayName: "New"}).Return(nil)

	svc := newService(as, nil, nil, nil)
	res, err := svc.Update(context.Background(), "acc1", domain.UpdateProfileRequest{
		DisplayName: strPtr("New"),
	})

	require.NoError(t, err)
	assert.Equal(t, "New", res.Account.DisplayName)
	assert.Empty(t, res.PendingEmail)
	as.AssertExpectations(t)
}

func TestUpdate_EmailChange_DoesNotTouchStoredEmail(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}
	ml := &mockMailer{}

	as.On("Get", mock.Anything, "acc1").
		Return(&domain.Account{AccountID: "acc1", Email: "old@b.com"}, nil)
	as.On("GetByEmail", mock.Anything, "new@b.com").Return(nil, domain.ErrNotFound)
	vs.On("Put", mock.Anything, mock.MatchedBy(func(v *domain.PendingVerification) bool {
		return v.Purpose == domain.PurposeEmailChange && v.NewEmail == "new@b.com"
	})).Return(nil)
	// The code goes to the candidate address, not the current one.
	ml.On("SendEmail", "new@b.com", mock.Anything, mock.Anything).Return(nil)

	svc := newService(as, vs, ml, nil)
	res, err := svc.Update(context.Background(), "acc1", domain.UpdateProfileRequest{
		Email: strPtr("New@B.com"),
	})

	require.NoError(t, err)
	assert.Equal(t, "new@b.com", res.PendingEmail)
	assert.Equal(t, "old@b.com", res.Account.Email)
	as.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	vs.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestUpdate_EmailTakenByOtherAccount_ReturnsConflict(t *testing.T) {
	as := &mockAccountStore{}

	as.On("Get", mock.Anything, "acc1").
		Return(&domain.Account{AccountID: "acc1", Email: "old@b.com"}, nil)
	as.On("GetByEmail", mock.Anything, "new@b.com").
		Return(&domain.Account{AccountID: "acc2", Email: "new@b.com"}, nil)

	svc := newService(as, nil, nil, nil)
	_, err := svc.Update(context.Background(), "acc1", domain.UpdateProfileRequest{
		Email: strPtr("new@b.com"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestUpdate_EmailLookupFailure_ReturnsDependency(t *testing.T) {
	as := &mockAccountStore{}

	as.On("Get", mock.Anything, "acc1").
		Return(&domain.Account{AccountID: "acc1", Email: "old@b.com"}, nil)
	as.On("GetByEmail", mock.Anything, "new@b.com").Return(nil, errors.New("dynamo down"))

	svc := newService(as, nil, nil, nil)
	_, err := svc.Update(context.Background(), "acc1", domain.UpdateProfileRequest{
		Email: strPtr("new@b.com"),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDependency))
	as.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_SameEmail_NoChangeDispatched(t *testing.T) {
	as := &mockAccountStore{}

	as.On("Get", mock.Anything, "acc1").
		Return(&domain.Account{AccountID: "acc1", Email: "a@b.com"}, nil)

	svc := newService(as, nil, nil, nil)
	res, err := svc.Update(context.Background(), "acc1", domain.UpdateProfileRequest{
		Email: strPtr("A@B.com"),
	})

	require.NoError(t, err)
	assert.Empty(t, res.PendingEmail)
	as.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestUpdate_AvatarUploadFailure_ReturnsDependency(t *testing.T) {
	as := &mockAccountStore{}
	av := &mockAvatarStore{}

	as.On("Get", mock.Anything, "acc1").
		Return(&domain.Account{AccountID: "acc1", Email: "a@b.com"}, nil)
	av.On("UploadBase64", mock.Anything, "avatars/acc1", mock.Anything).
		Return("", errors.New("s3 down"))

	svc := newService(as, nil, nil, av)
	_, err := svc.Update(context.Background(), "acc1", domain.UpdateProfileRequest{
		AvatarBase64: strPtr("aGVsbG8="),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDependency))
	as.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_RemoveAvatar_DeletesObjectAndClearsKey(t *testing.T) {
	as := &mockAccountStore{}
	av := &mockAvatarStore{}

	as.On("Get", mock.Anything, "acc1").
		Return(&domain.Account{AccountID: "acc1", Email: "a@b.com", AvatarKey: "avatars/acc1"}, nil)
	av.On("Delete", mock.Anything, "avatars/acc1").Return(nil)
	as.On("Update", mock.Anything, "acc1", map[string]interface{}{fieldAvatarKey: ""}).Return(nil)

	svc := newService(as, nil, nil, av)
	res, err := svc.Update(context.Background(), "acc1", domain.UpdateProfileRequest{
		RemoveAvatar: true,
	})

	require.NoError(t, err)
	assert.Empty(t, res.Account.AvatarKey)
	as.AssertExpectations(t)
	av.AssertExpectations(t)
}

func TestUpdate_RemoveAvatar_ObjectDeleteFailureIsNotFatal(t *testing.T) {
	as := &mockAccountStore{}
	av := &mockAvatarStore{}

	as.On("Get", mock.Anything, "acc1").
		Return(&domain.Account{AccountID: "acc1", Email: "a@b.com", AvatarKey: "avatars/acc1"}, nil)
	av.On("Delete", mock.Anything, "avatars/acc1").Return(errors.New("s3 down"))
	as.On("Update", mock.Anything, "acc1", map[string]interface{}{fieldAvatarKey: ""}).Return(nil)

	svc := newService(as, nil, nil, av)
	res, err := svc.Update(context.Background(), "acc1", domain.UpdateProfileRequest{
		RemoveAvatar: true,
	})

	require.NoError(t, err)
	assert.Empty(t, res.Account.AvatarKey)
}

// --- VerifyNewEmail ---

func TestVerifyNewEmail_HappyPath(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}

	as.On("Get", mock.Anything, "acc1").
		Return(&domain.Account{AccountID: "acc1", Email: "old@b.com"}, nil)
	vs.On("Get", mock.Anything, "acc1", domain.PurposeEmailChange).Return(&domain.PendingVerification{
		AccountID: "acc1",
		Purpose:   domain.PurposeEmailChange,
		Code:      "111111",
		ExpiresAt: time.Now().Add(10 * time.Minute).Unix(),
		NewEmail:  "new@b.com",
	}, nil)
	as.On("Update", mock.Anything, "acc1", map[string]interface{}{fieldEmail: "new@b.com"}).Return(nil)
	vs.On("Delete", mock.Anything, "acc1", domain.PurposeEmailChange).Return(nil)

	svc := newService(as, vs, nil, nil)
	a, err := svc.VerifyNewEmail(context.Background(), "acc1", "111111", "New@B.com")

	require.NoError(t, err)
	assert.Equal(t, "new@b.com", a.Email)
	as.AssertExpectations(t)
	vs.AssertExpectations(t)
}

func TestVerifyNewEmail_WrongCode_LeavesEmailUntouched(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}

	as.On("Get", mock.Anything, "acc1").
		Return(&domain.Account{AccountID: "acc1", Email: "old@b.com"}, nil)
	vs.On("Get", mock.Anything, "acc1", domain.PurposeEmailChange).Return(&domain.PendingVerification{
		Code:      "111111",
		ExpiresAt: time.Now().Add(10 * time.Minute).Unix(),
		NewEmail:  "new@b.com",
	}, nil)

	svc := newService(as, vs, nil, nil)
	_, err := svc.VerifyNewEmail(context.Background(), "acc1", "999999", "new@b.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeMismatch))
	as.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyNewEmail_CandidateMismatch(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}

	as.On("Get", mock.Anything, "acc1").
		Return(&domain.Account{AccountID: "acc1", Email: "old@b.com"}, nil)
	vs.On("Get", mock.Anything, "acc1", domain.PurposeEmailChange).Return(&domain.PendingVerification{
		Code:      "111111",
		ExpiresAt: time.Now().Add(10 * time.Minute).Unix(),
		NewEmail:  "new@b.com",
	}, nil)

	svc := newService(as, vs, nil, nil)
	_, err := svc.VerifyNewEmail(context.Background(), "acc1", "111111", "other@b.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeMismatch))
	as.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyNewEmail_ExpiredCode(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}

	as.On("Get", mock.Anything, "acc1").
		Return(&domain.Account{AccountID: "acc1"}, nil)
	vs.On("Get", mock.Anything, "acc1", domain.PurposeEmailChange).Return(&domain.PendingVerification{
		Code:      "111111",
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
		NewEmail:  "new@b.com",
	}, nil)

	svc := newService(as, vs, nil, nil)
	_, err := svc.VerifyNewEmail(context.Background(), "acc1", "111111", "new@b.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeExpired))
}

func TestVerifyNewEmail_NoPendingChange(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}

	as.On("Get", mock.Anything, "acc1").
		Return(&domain.Account{AccountID: "acc1"}, nil)
	vs.On("Get", mock.Anything, "acc1", domain.PurposeEmailChange).Return(nil, domain.ErrNotFound)

	svc := newService(as, vs, nil, nil)
	_, err := svc.VerifyNewEmail(context.Background(), "acc1", "111111", "new@b.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoPendingCode))
}
