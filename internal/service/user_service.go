package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/store"
	users "github.com/AdamBeresnev/ultimate-tournaments/internal/user"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/markbates/goth"
)

// GuestUserID is the shared volunteer account used when logging in as a guest.
var GuestUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type UserService struct {
	db          *sqlx.DB
	store       *store.UserStore
	adminEmails []string
}

// NewUserService creates the service. OAuth users whose email is one of
// adminEmails are made administrators when they log in.
func NewUserService(db *sqlx.DB, store *store.UserStore, adminEmails ...string) *UserService {
	return &UserService{db: db, store: store, adminEmails: adminEmails}
}

func (s *UserService) isAdminEmail(email string) bool {
	if email == "" {
		return false
	}
	for _, e := range s.adminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// FindOrCreateUserByProvider returns the user behind an OAuth login. New
// users start out as volunteers unless their email is listed as an admin.
func (s *UserService) FindOrCreateUserByProvider(ctx context.Context, gothUser goth.User) (*users.User, error) {
	user, err := s.store.GetUserByProvider(ctx, gothUser.Provider, gothUser.UserID)

	if err == nil {
		if user.Role != users.RoleAdmin && s.isAdminEmail(user.Email) {
			if err := s.store.UpdateUserRole(ctx, user.ID, users.RoleAdmin); err != nil {
				return nil, err
			}
			user.Role = users.RoleAdmin
			slog.Info("user promoted from admin list", "user_id", user.ID)
		}
		if utils.OrZero(user.AvatarURL) != gothUser.AvatarURL || user.Username != gothUser.NickName {
			user.AvatarURL = utils.StringOrNil(gothUser.AvatarURL)
			user.Username = gothUser.NickName
			if err := s.store.UpdateUserNameAndAvatar(ctx, user); err != nil {
				return nil, err
			}
		}
		return user, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		username := gothUser.NickName
		if username == "" {
			username = gothUser.Name
		}
		role := users.RoleVolunteer
		if s.isAdminEmail(gothUser.Email) {
			role = users.RoleAdmin
		}
		newUser := &users.User{
			ID:         uuid.New(),
			Email:      gothUser.Email,
			Username:   username,
			Role:       role,
			Provider:   &gothUser.Provider,
			ProviderID: &gothUser.UserID,
			AvatarURL:  utils.StringOrNil(gothUser.AvatarURL),
		}
		err := s.store.CreateUser(ctx, newUser)
		return newUser, err
	}

	return nil, err
}

// EnsureGuestUser returns the guest account, creating it on first use. The
// guest can run matches but never holds administrator rights.
func (s *UserService) EnsureGuestUser(ctx context.Context) (*users.User, error) {
	user, err := s.store.GetUser(ctx, GuestUserID)
	if err == nil {
		if user.Role != users.RoleVolunteer {
			if err := s.store.UpdateUserRole(ctx, user.ID, users.RoleVolunteer); err != nil {
				return nil, err
			}
			user.Role = users.RoleVolunteer
		}
		return user, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		guestUser := &users.User{
			ID:       GuestUserID,
			Email:    "guest@ultimate-tournaments.app",
			Username: "Guest",
			Role:     users.RoleVolunteer,
		}
		err := s.store.CreateUser(ctx, guestUser)
		return guestUser, err
	}
	return nil, err
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

// SetRole changes the role of another user. Only administrators may do this.
func (s *UserService) SetRole(ctx context.Context, actor users.Actor, userID uuid.UUID, role users.Role) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return s.store.UpdateUserRole(ctx, userID, role)
}
