package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaveapproval/attendance-client-go/internal/domain/user"
)

func testUser() user.User {
	return user.User{
		ID:        2,
		FirstName: "John",
		LastName:  "Doe",
		Email:     "john.doe@company.com",
		Role:      user.RoleEmployee,
	}
}

func signedToken(t *testing.T, expiresIn time.Duration) string {
	t.Helper()
	auth := jwtauth.New("HS256", []byte("test-secret"), nil)
	claims := map[string]interface{}{"user_id": int64(2)}
	jwtauth.SetExpiryIn(claims, expiresIn)
	_, token, err := auth.Encode(claims)
	require.NoError(t, err)
	return token
}

func TestStore_RoundTripSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := NewStore(path)
	require.NoError(t, err)
	assert.False(t, store.IsAuthenticated())
	assert.Nil(t, store.CurrentUser())

	require.NoError(t, store.SetSession("tok-abc", testUser()))
	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, "tok-abc", store.Token())

	// A new store over the same file sees the session, like a page
	// reload over localStorage.
	reopened, err := NewStore(path)
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", reopened.Token())
	u := reopened.CurrentUser()
	require.NotNil(t, u)
	assert.Equal(t, int64(2), u.ID)
	assert.Equal(t, "John Doe", u.FullName())
}

func TestStore_ClearSignsOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store, err := NewStore(path)
	require.NoError(t, err)

	require.NoError(t, store.SetSession("tok", testUser()))
	require.NoError(t, store.Clear())

	assert.False(t, store.IsAuthenticated())
	assert.Nil(t, store.CurrentUser())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	assert.False(t, reopened.IsAuthenticated())
}

func TestStore_CorruptFileTreatedAsSignedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store, err := NewStore(path)
	require.NoError(t, err)
	assert.False(t, store.IsAuthenticated())
}

func TestStore_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "session.json")
	store, err := NewStore(path)
	require.NoError(t, err)

	require.NoError(t, store.SetSession("tok", testUser()))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestStore_Expired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store, err := NewStore(path)
	require.NoError(t, err)

	now := time.Now()

	// No token at all.
	assert.True(t, store.Expired(now))

	// A live token.
	require.NoError(t, store.SetSession(signedToken(t, time.Hour), testUser()))
	assert.False(t, store.Expired(now))

	// Past its exp claim.
	require.NoError(t, store.SetSession(signedToken(t, time.Minute), testUser()))
	assert.True(t, store.Expired(now.Add(2*time.Minute)))

	// Garbage tokens count as expired.
	require.NoError(t, store.SetSession("not-a-jwt", testUser()))
	assert.True(t, store.Expired(now))
}
