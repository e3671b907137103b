package userapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gramly/internal/core/apperror"
	userEntity "gramly/internal/core/user"
	"gramly/internal/ports"
	mediaPort "gramly/internal/ports/media"
	userPort "gramly/internal/ports/user"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer = "gramly"
	tokenTTL    = 24 * time.Hour
)

// UserService handles accounts: registration, login and profiles.
type UserService struct {
	UserRepository userPort.UserRepository
	Media          mediaPort.Store
	Cache          userPort.SummaryCache // nil disables invalidation
	Logger         *zap.Logger

	jwtKey []byte
	now    func() time.Time
}

func NewUserService(repo userPort.UserRepository, media mediaPort.Store, cache userPort.SummaryCache, jwtKey []byte, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		UserRepository: repo,
		Media:          media,
		Cache:          cache,
		Logger:         logger,
		jwtKey:         jwtKey,
		now:            time.Now,
	}
}

// EditProfileInput carries the optional profile changes. Nil or empty fields are left alone.
type EditProfileInput struct {
	Bio     *string
	Gender  *string
	Picture []byte
}

// RegisterUser creates an account with a bcrypt hashed password.
func (s *UserService) RegisterUser(ctx context.Context, fullName, email, password string) (*userPort.UserDTO, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" || password == "" {
		return nil, apperror.Validation("please provide all required fields")
	}

	if _, err := s.UserRepository.FindByEmail(ctx, email); err == nil {
		return nil, apperror.Validation("email already exists")
	} else if !errors.Is(err, ports.ErrNotFound) {
		return nil, apperror.Store("find user by email", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Store("hash password", err)
	}

	u := &userEntity.User{
		ID:        uuid.Must(uuid.NewV4()),
		FullName:  fullName,
		Email:     email,
		Password:  string(hashedPassword),
		CreatedAt: s.now().UTC(),
	}

	created, err := s.UserRepository.Create(ctx, u)
	if err != nil {
		// Lost a race with another registration for the same email.
		if errors.Is(err, ports.ErrDuplicate) {
			return nil, apperror.Validation("email already exists")
		}
		return nil, apperror.Store("create user", err)
	}

	s.Logger.Info("user registered", zap.String("userID", created.ID.String()))
	return userPort.ToUserDTO(created), nil
}

// LoginUser checks the credentials and issues a signed JWT.
func (s *UserService) LoginUser(ctx context.Context, email, password string) (*userPort.LoginResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.Validation("please provide all required fields")
	}

	u, err := s.UserRepository.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperror.Authorization("invalid credentials")
		}
		return nil, apperror.Store("find user by email", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		s.Logger.Debug("password mismatch", zap.String("userID", u.ID.String()))
		return nil, apperror.Authorization("invalid credentials")
	}

	expiresAt := s.now().Add(tokenTTL)
	token, err := s.generateJWT(u, expiresAt)
	if err != nil {
		return nil, apperror.Store("sign token", err)
	}

	return &userPort.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		User:      userPort.ToUserDTO(u),
	}, nil
}

func (s *UserService) generateJWT(u *userEntity.User, expiresAt time.Time) (string, error) {
	claims := &jwt.StandardClaims{
		Subject:   u.ID.String(),
		Issuer:    tokenIssuer,
		IssuedAt:  s.now().Unix(),
		ExpiresAt: expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtKey)
}

// ParseToken validates a token issued by LoginUser and returns the user id it was issued for.
func (s *UserService) ParseToken(tokenString string) (uuid.UUID, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtKey, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, apperror.Authorization("user not authenticated")
	}
	if !claims.VerifyIssuer(tokenIssuer, true) {
		return uuid.Nil, apperror.Authorization("user not authenticated")
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, apperror.Authorization("user not authenticated")
	}
	return id, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*userPort.UserDTO, error) {
	u, err := s.UserRepository.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOrStore("find user", err)
	}
	return userPort.ToUserDTO(u), nil
}

// EditProfile updates the principal's own profile. A new picture goes through the media store first.
func (s *UserService) EditProfile(ctx context.Context, principal uuid.UUID, in EditProfileInput) (*userPort.UserDTO, error) {
	var update userPort.ProfileUpdate

	if in.Bio != nil && *in.Bio != "" {
		update.Bio = in.Bio
	}
	if in.Gender != nil && *in.Gender != "" {
		gender := strings.ToLower(*in.Gender)
		if !userEntity.ValidGender(gender) {
			return nil, apperror.Validation("gender must be male or female")
		}
		update.Gender = &gender
	}

	if _, err := s.UserRepository.FindByID(ctx, principal); err != nil {
		return nil, notFoundOrStore("find user", err)
	}

	if len(in.Picture) > 0 {
		if s.Media == nil {
			return nil, apperror.Store("upload profile picture", errors.New("media store not configured"))
		}
		url, err := s.Media.Upload(ctx, in.Picture)
		if err != nil {
			var appErr *apperror.Error
			if errors.As(err, &appErr) {
				return nil, appErr
			}
			return nil, apperror.Store("upload profile picture", err)
		}
		update.ProfilePicture = &url
	}

	if update.Empty() {
		return s.GetProfile(ctx, principal)
	}

	u, err := s.UserRepository.UpdateProfile(ctx, principal, update)
	if err != nil {
		if update.ProfilePicture != nil {
			s.discardUpload(ctx, *update.ProfilePicture)
		}
		return nil, notFoundOrStore("update profile", err)
	}

	if s.Cache != nil {
		s.Cache.Invalidate(ctx, principal)
	}
	return userPort.ToUserDTO(u), nil
}

func (s *UserService) discardUpload(ctx context.Context, url string) {
	if err := s.Media.Remove(context.WithoutCancel(ctx), url); err != nil {
		s.Logger.Warn("orphaned upload left in media store", zap.String("url", url), zap.Error(err))
	}
}

// SuggestedUsers returns every user except the principal.
func (s *UserService) SuggestedUsers(ctx context.Context, principal uuid.UUID) ([]*userPort.UserDTO, error) {
	users, err := s.UserRepository.FindAllExcept(ctx, principal)
	if err != nil {
		return nil, apperror.Store("find suggested users", err)
	}

	out := make([]*userPort.UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, userPort.ToUserDTO(u))
	}
	return out, nil
}

func notFoundOrStore(op string, err error) error {
	if errors.Is(err, ports.ErrNotFound) {
		return apperror.NotFound("user not found")
	}
	return apperror.Store(op, err)
}
