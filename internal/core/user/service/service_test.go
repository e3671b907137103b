package userapp

import (
	"context"
	"errors"
	"testing"
	"time"

	"gramly/internal/adapters/memory"
	"gramly/internal/core/apperror"
	userEntity "gramly/internal/core/user"
	mediaPort "gramly/internal/ports/media"
	userPort "gramly/internal/ports/user"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockMedia struct {
	mock.Mock
}

func (m *mockMedia) Upload(ctx context.Context, data []byte) (string, error) {
	args := m.Called(ctx, data)
	return args.String(0), args.Error(1)
}

func (m *mockMedia) Remove(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

// failingProfiles accepts everything except profile updates.
type failingProfiles struct {
	*memory.UserRepository
}

func (f *failingProfiles) UpdateProfile(ctx context.Context, id uuid.UUID, update userPort.ProfileUpdate) (*userEntity.User, error) {
	return nil, errors.New("store unavailable")
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*userPort.SummaryDTO, []uuid.UUID) {
	return nil, ids
}

func (m *mockCache) Set(ctx context.Context, summaries ...*userPort.SummaryDTO) {}

func (m *mockCache) Invalidate(ctx context.Context, id uuid.UUID) { m.Called(ctx, id) }

var testKey = []byte("test-secret")

func newService(media mediaPort.Store) *UserService {
	return NewUserService(memory.NewUserRepository(), media, nil, testKey, zap.NewNop())
}

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil)

	u, err := svc.RegisterUser(ctx, "Alice Doe", " Alice@Example.com ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "Alice Doe", u.FullName)
	assert.Empty(t, u.Posts)

	stored, err := svc.UserRepository.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", stored.Password)

	tests := []struct {
		name                      string
		fullName, email, password string
		message                   string
	}{
		{"missing name", "", "b@example.com", "pw", "please provide all required fields"},
		{"missing password", "Bob", "b@example.com", "", "please provide all required fields"},
		{"duplicate email", "Other", "ALICE@example.com", "pw", "email already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RegisterUser(ctx, tt.fullName, tt.email, tt.password)
			assert.True(t, apperror.Is(err, apperror.KindValidation))
			assert.Equal(t, tt.message, apperror.Message(err))
		})
	}
}

func TestLoginUser_IssuesParsableToken(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil)
	registered, err := svc.RegisterUser(ctx, "Alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	resp, err := svc.LoginUser(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, registered.ID, resp.User.ID)
	assert.Greater(t, resp.ExpiresAt, time.Now().Unix())

	id, err := svc.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, id.String())
}

func TestLoginUser_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil)
	_, err := svc.RegisterUser(ctx, "Alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	_, err = svc.LoginUser(ctx, "alice@example.com", "wrong")
	assert.True(t, apperror.Is(err, apperror.KindAuthorization))

	_, err = svc.LoginUser(ctx, "nobody@example.com", "s3cret")
	assert.True(t, apperror.Is(err, apperror.KindAuthorization))
	assert.Equal(t, "invalid credentials", apperror.Message(err))
}

func TestParseToken_Rejects(t *testing.T) {
	svc := newService(nil)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwt.StandardClaims{
		Subject:   uuid.Must(uuid.NewV4()).String(),
		Issuer:    tokenIssuer,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	signedElsewhere, err := foreign.SignedString([]byte("other-key"))
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwt.StandardClaims{
		Subject:   uuid.Must(uuid.NewV4()).String(),
		Issuer:    tokenIssuer,
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	})
	expiredToken, err := expired.SignedString(testKey)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not.a.token",
		"wrong key":    signedElsewhere,
		"expired":      expiredToken,
		"empty string": "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ParseToken(token)
			assert.True(t, apperror.Is(err, apperror.KindAuthorization))
		})
	}
}

func TestGetProfileAndSuggestions(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil)
	alice, err := svc.RegisterUser(ctx, "Alice", "alice@example.com", "pw")
	require.NoError(t, err)
	bob, err := svc.RegisterUser(ctx, "Bob", "bob@example.com", "pw")
	require.NoError(t, err)

	aliceID := uuid.FromStringOrNil(alice.ID)
	profile, err := svc.GetProfile(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.FullName)

	_, err = svc.GetProfile(ctx, uuid.Must(uuid.NewV4()))
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	suggested, err := svc.SuggestedUsers(ctx, aliceID)
	require.NoError(t, err)
	require.Len(t, suggested, 1)
	assert.Equal(t, bob.ID, suggested[0].ID)
}

func TestEditProfile(t *testing.T) {
	ctx := context.Background()
	media := new(mockMedia)
	svc := newService(media)
	alice, err := svc.RegisterUser(ctx, "Alice", "alice@example.com", "pw")
	require.NoError(t, err)
	aliceID := uuid.FromStringOrNil(alice.ID)

	picture := []byte("\x89PNG\r\n\x1a\n")
	media.On("Upload", mock.Anything, picture).Return("/media/alice.png", nil).Once()

	bio, gender := "hello", "Female"
	updated, err := svc.EditProfile(ctx, aliceID, EditProfileInput{Bio: &bio, Gender: &gender, Picture: picture})
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Bio)
	assert.Equal(t, "female", updated.Gender)
	assert.Equal(t, "/media/alice.png", updated.ProfilePicture)
	media.AssertExpectations(t)

	empty := ""
	unchanged, err := svc.EditProfile(ctx, aliceID, EditProfileInput{Bio: &empty})
	require.NoError(t, err)
	assert.Equal(t, "hello", unchanged.Bio)

	bad := "robot"
	_, err = svc.EditProfile(ctx, aliceID, EditProfileInput{Gender: &bad})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.EditProfile(ctx, uuid.Must(uuid.NewV4()), EditProfileInput{Bio: &bio})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestEditProfile_RejectedUpload(t *testing.T) {
	ctx := context.Background()
	media := new(mockMedia)
	svc := newService(media)
	alice, err := svc.RegisterUser(ctx, "Alice", "alice@example.com", "pw")
	require.NoError(t, err)

	media.On("Upload", mock.Anything, mock.Anything).Return("", apperror.Validation("unsupported image type"))

	_, err = svc.EditProfile(ctx, uuid.FromStringOrNil(alice.ID), EditProfileInput{Picture: []byte("plain text")})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, "unsupported image type", apperror.Message(err))
}

func TestEditProfile_InvalidatesCachedSummary(t *testing.T) {
	ctx := context.Background()
	cache := new(mockCache)
	svc := NewUserService(memory.NewUserRepository(), nil, cache, testKey, nil)
	alice, err := svc.RegisterUser(ctx, "Alice", "alice@example.com", "pw")
	require.NoError(t, err)
	aliceID := uuid.FromStringOrNil(alice.ID)

	cache.On("Invalidate", ctx, aliceID).Once()

	bio := "new bio"
	_, err = svc.EditProfile(ctx, aliceID, EditProfileInput{Bio: &bio})
	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestEditProfile_StoreFailureRemovesUpload(t *testing.T) {
	ctx := context.Background()
	media := new(mockMedia)
	repo := &failingProfiles{UserRepository: memory.NewUserRepository()}
	svc := NewUserService(repo, media, nil, testKey, zap.NewNop())
	alice, err := svc.RegisterUser(ctx, "Alice", "alice@example.com", "pw")
	require.NoError(t, err)

	media.On("Upload", mock.Anything, mock.Anything).Return("/media/alice.png", nil).Once()
	media.On("Remove", mock.Anything, "/media/alice.png").Return(nil).Once()

	_, err = svc.EditProfile(ctx, uuid.FromStringOrNil(alice.ID), EditProfileInput{Picture: []byte("\x89PNG\r\n\x1a\n")})

	assert.True(t, apperror.Is(err, apperror.KindStore))
	media.AssertExpectations(t)
}
