package user

import (
	"context"
	"errors"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

const (
	maxEmailLength = 254
	minEmailLength = 3
	bcryptCost     = 12
)

type Service interface {
	Register(ctx context.Context, email, displayName, password string) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	GetUserByID(ctx context.Context, userID string) (*User, error)
	ListUserIDs(ctx context.Context) ([]string, error)
	RequestLink(ctx context.Context, userID, partnerEmail string) (*Link, error)
	AcceptLink(ctx context.Context, userID string) (*Link, error)
	Unlink(ctx context.Context, userID string) error
	// ActivePartner returns the other member of the user's active household
	// link, or the empty string when the user has none.
	ActivePartner(ctx context.Context, userID string) (string, error)
}

type service struct {
	repo Repository
}

func NewUserService(repo Repository) Service {
	return &service{repo: repo}
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hashed), err
}

func doPasswordsMatch(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

func validateEmailAddress(email string) error {
	if err := checkmail.ValidateFormat(email); err != nil {
		return ledgerErrors.NewValidationError("Email address is not valid")
	}
	if len(email) > maxEmailLength || len(email) <= minEmailLength {
		return ledgerErrors.NewValidationError("Email address length is out of range")
	}
	return nil
}

func (s *service) Register(ctx context.Context, email, displayName, password string) (*User, error) {
	email = strings.TrimSpace(email)
	if err := validateEmailAddress(email); err != nil {
		return nil, err
	}
	if len(password) < 8 {
		return nil, ledgerErrors.NewValidationError("Password must be at least 8 characters")
	}
	if displayName == "" {
		displayName = strings.Split(email, "@")[0]
	}

	if _, err := s.repo.getUserByEmail(ctx, email); err == nil {
		return nil, ledgerErrors.NewConflictError("Email already registered")
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
	}
	if err := s.repo.createUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.getUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ledgerErrors.NewValidationError("Invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if !doPasswordsMatch(user.PasswordHash, password) {
		return nil, ledgerErrors.NewValidationError("Invalid email or password")
	}
	return user, nil
}

func (s *service) GetUserByID(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.getUserByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ledgerErrors.NewNotFoundError("User")
	}
	return user, err
}

func (s *service) ListUserIDs(ctx context.Context) ([]string, error) {
	return s.repo.listUserIDs(ctx)
}

// RequestLink opens a pending household link from the user to the owner of
// partnerEmail. Each user can be in at most one link at a time.
func (s *service) RequestLink(ctx context.Context, userID, partnerEmail string) (*Link, error) {
	partner, err := s.repo.getUserByEmail(ctx, partnerEmail)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ledgerErrors.NewNotFoundError("User with that email")
	}
	if err != nil {
		return nil, err
	}
	if partner.ID == userID {
		return nil, ledgerErrors.NewValidationError("Cannot link a household to yourself")
	}

	for _, id := range []string{userID, partner.ID} {
		existing, err := s.repo.getLinkByUser(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ledgerErrors.NewConflictError("User is already part of a household link")
		}
	}

	link := &Link{
		ID:     uuid.New(),
		UserA:  userID,
		UserB:  partner.ID,
		Status: LinkStatusPending,
	}
	if err := s.repo.createLink(ctx, link); err != nil {
		if errors.Is(err, ErrAlreadyLinked) {
			return nil, ledgerErrors.NewConflictError("User is already part of a household link")
		}
		return nil, err
	}
	return link, nil
}

// AcceptLink activates the pending link addressed to the user. Only the
// invited side (user_b) can accept.
func (s *service) AcceptLink(ctx context.Context, userID string) (*Link, error) {
	link, err := s.repo.getLinkByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if link == nil || link.Status != LinkStatusPending {
		return nil, ledgerErrors.NewNotFoundError("Pending household link")
	}
	if link.UserB != userID {
		return nil, ledgerErrors.NewValidationError("Only the invited user can accept the link")
	}
	if err := s.repo.updateLinkStatus(ctx, link.ID, LinkStatusActive); err != nil {
		return nil, err
	}
	link.Status = LinkStatusActive
	return link, nil
}

// Unlink removes the user's household link regardless of status. Either side
// can dissolve it.
func (s *service) Unlink(ctx context.Context, userID string) error {
	link, err := s.repo.getLinkByUser(ctx, userID)
	if err != nil {
		return err
	}
	if link == nil {
		return ledgerErrors.NewNotFoundError("Household link")
	}
	return s.repo.deleteLink(ctx, link.ID)
}

func (s *service) ActivePartner(ctx context.Context, userID string) (string, error) {
	link, err := s.repo.getLinkByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if link == nil || link.Status != LinkStatusActive {
		return "", nil
	}
	if link.UserA == userID {
		return link.UserB, nil
	}
	return link.UserA, nil
}
