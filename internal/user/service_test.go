package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

type mockRepository struct {
	users map[string]User
	links map[uuid.UUID]Link
	// staleLinkReads makes getLinkByUser report no link while links exist,
	// the way a concurrent request sees the table before the other commit.
	staleLinkReads bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users: make(map[string]User),
		links: make(map[uuid.UUID]Link),
	}
}

func (m *mockRepository) createUser(_ context.Context, user *User) error {
	m.users[user.ID] = *user
	return nil
}

func (m *mockRepository) getUserByID(_ context.Context, id string) (*User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (m *mockRepository) getUserByEmail(_ context.Context, email string) (*User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) listUserIDs(_ context.Context) ([]string, error) {
	var ids []string
	for id := range m.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockRepository) createLink(_ context.Context, link *Link) error {
	for _, existing := range m.links {
		for _, member := range []string{link.UserA, link.UserB} {
			if existing.UserA == member || existing.UserB == member {
				return ErrAlreadyLinked
			}
		}
	}
	m.links[link.ID] = *link
	return nil
}

func (m *mockRepository) getLinkByUser(_ context.Context, userID string) (*Link, error) {
	if m.staleLinkReads {
		return nil, nil
	}
	for _, link := range m.links {
		if link.UserA == userID || link.UserB == userID {
			return &link, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) updateLinkStatus(_ context.Context, linkID uuid.UUID, status LinkStatus) error {
	link := m.links[linkID]
	link.Status = status
	m.links[linkID] = link
	return nil
}

func (m *mockRepository) deleteLink(_ context.Context, linkID uuid.UUID) error {
	delete(m.links, linkID)
	return nil
}

func registerUser(t *testing.T, service Service, email string) *User {
	t.Helper()
	user, err := service.Register(context.Background(), email, "", "correct horse battery")
	require.NoError(t, err)
	return user
}

func TestRegister_HashesPasswordAndDefaultsDisplayName(t *testing.T) {
	service := NewUserService(newMockRepository())
	user := registerUser(t, service, "alice@example.com")

	assert.Equal(t, "alice", user.DisplayName)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)

	authed, err := service.Authenticate(context.Background(), "alice@example.com", "correct horse battery")
	assert.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = service.Authenticate(context.Background(), "alice@example.com", "wrong password")
	assert.True(t, ledgerErrors.IsValidationError(err))
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	service := NewUserService(newMockRepository())
	registerUser(t, service, "alice@example.com")

	_, err := service.Register(context.Background(), "alice@example.com", "", "another password")
	assert.True(t, ledgerErrors.IsConflictError(err))
}

func TestLinkFlow_PendingThenActive(t *testing.T) {
	service := NewUserService(newMockRepository())
	alice := registerUser(t, service, "alice@example.com")
	bob := registerUser(t, service, "bob@example.com")

	link, err := service.RequestLink(context.Background(), alice.ID, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, LinkStatusPending, link.Status)

	// A pending link resolves no partner on either side.
	partner, err := service.ActivePartner(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, partner)

	// The inviter cannot accept their own invitation.
	_, err = service.AcceptLink(context.Background(), alice.ID)
	assert.True(t, ledgerErrors.IsValidationError(err))

	_, err = service.AcceptLink(context.Background(), bob.ID)
	require.NoError(t, err)

	// Active link is mutual.
	partner, err = service.ActivePartner(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, partner)
	partner, err = service.ActivePartner(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, partner)
}

func TestRequestLink_RejectsSelfAndDoubleLinks(t *testing.T) {
	service := NewUserService(newMockRepository())
	alice := registerUser(t, service, "alice@example.com")
	registerUser(t, service, "bob@example.com")
	carol := registerUser(t, service, "carol@example.com")

	_, err := service.RequestLink(context.Background(), alice.ID, "alice@example.com")
	assert.True(t, ledgerErrors.IsValidationError(err))

	_, err = service.RequestLink(context.Background(), alice.ID, "bob@example.com")
	require.NoError(t, err)

	// Bob is already spoken for, even while the link is pending.
	_, err = service.RequestLink(context.Background(), carol.ID, "bob@example.com")
	assert.True(t, ledgerErrors.IsConflictError(err))
}

func TestRequestLink_ConcurrentRequestsHitConstraint(t *testing.T) {
	repo := newMockRepository()
	service := NewUserService(repo)
	alice := registerUser(t, service, "alice@example.com")
	registerUser(t, service, "bob@example.com")
	carol := registerUser(t, service, "carol@example.com")

	// Two requests for bob race: both pass the pre-check, only one insert
	// survives the membership constraint. The loser must come back as a
	// conflict, not a bare driver error.
	repo.staleLinkReads = true
	_, err := service.RequestLink(context.Background(), alice.ID, "bob@example.com")
	require.NoError(t, err)

	_, err = service.RequestLink(context.Background(), carol.ID, "bob@example.com")
	assert.True(t, ledgerErrors.IsConflictError(err))
	assert.Len(t, repo.links, 1)
}

func TestUnlink_EitherSideCanDissolve(t *testing.T) {
	service := NewUserService(newMockRepository())
	alice := registerUser(t, service, "alice@example.com")
	bob := registerUser(t, service, "bob@example.com")

	_, err := service.RequestLink(context.Background(), alice.ID, "bob@example.com")
	require.NoError(t, err)
	_, err = service.AcceptLink(context.Background(), bob.ID)
	require.NoError(t, err)

	require.NoError(t, service.Unlink(context.Background(), bob.ID))

	partner, err := service.ActivePartner(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, partner)

	assert.True(t, ledgerErrors.IsNotFoundError(service.Unlink(context.Background(), alice.ID)))
}
