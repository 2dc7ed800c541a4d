package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/profile-api/internal/domain"
	"github.com/phrazzld/profile-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser(id, email string) *domain.User {
	return &domain.User{
		ID:           id,
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestFindByID(t *testing.T) {
	t.Parallel()

	repo := NewUsersRepository(testUser("u1", "one@example.com"))

	t.Run("present", func(t *testing.T) {
		t.Parallel()
		user, err := repo.FindByID(context.Background(), "u1")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "one@example.com", user.Email)
	})

	t.Run("absent returns nil without error", func(t *testing.T) {
		t.Parallel()
		user, err := repo.FindByID(context.Background(), "missing")
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}

func TestFindByEmailIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	repo := NewUsersRepository(testUser("u1", "One@Example.com"))

	user, err := repo.FindByEmail(context.Background(), "one@example.COM")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)

	user, err = repo.FindByEmail(context.Background(), "two@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestCreate(t *testing.T) {
	t.Parallel()

	repo := NewUsersRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser("u1", "a@example.com")))

	err := repo.Create(ctx, testUser("u2", "A@example.com"))
	assert.ErrorIs(t, err, store.ErrEmailExists)

	invalid := testUser("u3", "c@example.com")
	invalid.PasswordHash = ""
	err = repo.Create(ctx, invalid)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestReturnedUsersAreCopies(t *testing.T) {
	t.Parallel()

	repo := NewUsersRepository(testUser("u1", "a@example.com"))

	user, err := repo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	user.Name = "mutated"

	again, err := repo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Test User", again.Name)
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()

	repo := NewUsersRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.FindByID(ctx, "u1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentCreateAllowsOneWinner(t *testing.T) {
	t.Parallel()

	repo := NewUsersRepository()
	const attempts = 20

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		conflict int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Create(context.Background(), testUser(string(rune('a'+i)), "same@example.com"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else {
				assert.ErrorIs(t, err, store.ErrEmailExists)
				conflict++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, conflict)
}
