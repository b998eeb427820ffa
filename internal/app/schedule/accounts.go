// internal/app/schedule/accounts.go
package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/groupsched/internal/app/system/inputval"
	"github.com/dalemusser/groupsched/internal/app/system/passwords"
	"github.com/dalemusser/groupsched/internal/domain/models"
	"go.uber.org/zap"
)

// RegisterInput is a sign-up request.
type RegisterInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	UserID    string `json:"userId"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// RegisterResult reports a completed registration.
type RegisterResult struct {
	RegistrationCompleted bool `json:"registrationCompleted"`
}

// Register validates and creates a new user with an empty schedule.
func (s *Service) Register(ctx context.Context, in RegisterInput) (res RegisterResult, err error) {
	defer s.observe("register", time.Now(), &err)

	first, err := inputval.Name("firstName", in.FirstName)
	if err != nil {
		return res, err
	}
	last, err := inputval.Name("lastName", in.LastName)
	if err != nil {
		return res, err
	}
	userID, err := inputval.UserID(in.UserID)
	if err != nil {
		return res, err
	}
	if _, err = inputval.Password(in.Password); err != nil {
		return res, err
	}
	role, err := inputval.Role(in.Role)
	if err != nil {
		return res, err
	}

	hash, err := passwords.Hash(in.Password)
	if err != nil {
		return res, err
	}

	now := s.now().UTC()
	u := models.User{
		UserID:       userID,
		FirstName:    first,
		LastName:     last,
		PasswordHash: hash,
		Role:         role,
		SignupDate:   now,
		Schedule:     models.EmptySchedule(),
		Groups:       map[string]string{},
	}
	if err = s.users.Create(ctx, &u); err != nil {
		return res, err
	}

	s.log.Info("user registered", zap.String("user_id", userID), zap.String("role", role))
	return RegisterResult{RegistrationCompleted: true}, nil
}

// Login checks credentials and stamps the login time. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, userID, password string) (u models.User, err error) {
	defer s.observe("login", time.Now(), &err)

	userID, err = inputval.UserID(userID)
	if err != nil {
		return u, err
	}
	if password == "" {
		return u, inputval.Invalid("password", "is required")
	}

	u, err = s.users.GetByUserID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}

	ok, err := passwords.Check(u.PasswordHash, password)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.users.TouchLogin(ctx, userID, now); err != nil {
		s.log.Warn("failed to record last login", zap.String("user_id", userID), zap.Error(err))
	} else {
		u.LastLogin = &now
	}
	return sanitize(u), nil
}

// GetUserByID returns a user without credentials.
func (s *Service) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	userID, err := inputval.UserID(userID)
	if err != nil {
		return models.User{}, err
	}
	u, err := s.users.GetByUserID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	return sanitize(u), nil
}

func sanitize(u models.User) models.User {
	u.PasswordHash = ""
	return u
}
