package users

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cabinetfs/cabinet/pkg/queue"
	"github.com/cabinetfs/cabinet/pkg/store/metadata"
	"github.com/cabinetfs/cabinet/pkg/store/metadata/memory"
	"github.com/cabinetfs/cabinet/pkg/worker"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *memory.MemoryStore, *queue.MemoryQueue) {
	t.Helper()

	store := memory.NewMemoryStore()
	q := queue.NewMemoryQueue(queue.Options{PollInterval: 5 * time.Millisecond})
	svc := NewService(store, q, WithHashCost(bcrypt.MinCost))
	return svc, store, q
}

func TestRegister(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "bob@dylan.com", "toto1234!")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "bob@dylan.com", user.Email)

	// The stored hash verifies against the password and is not the
	// password itself
	stored, err := store.UserByEmail(ctx, "bob@dylan.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte("toto1234!")))
	assert.NotContains(t, string(stored.PasswordHash), "toto1234!")
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "missing_email", email: "", password: "pw", wantErr: metadata.ErrMissingEmail},
		{name: "missing_password", email: "bob@dylan.com", password: "", wantErr: metadata.ErrMissingPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob@dylan.com", "first")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "bob@dylan.com", "second")
	assert.ErrorIs(t, err, metadata.ErrDuplicateEmail)
}

func TestRegister_EnqueuesWelcomeJob(t *testing.T) {
	svc, _, q := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "bob@dylan.com", "pw")
	require.NoError(t, err)

	d, err := q.Dequeue(ctx, worker.TopicWelcome)
	require.NoError(t, err)

	var job worker.WelcomeJob
	require.NoError(t, json.Unmarshal(d.Payload, &job))
	assert.Equal(t, user.ID, job.UserID)
	require.NoError(t, d.Ack())
}

func TestRegister_SurvivesQueueFailure(t *testing.T) {
	store := memory.NewMemoryStore()
	q := queue.NewMemoryQueue(queue.Options{})
	require.NoError(t, q.Close())

	svc := NewService(store, q, WithHashCost(bcrypt.MinCost))

	// The account is created even though the welcome enqueue fails
	user, err := svc.Register(context.Background(), "bob@dylan.com", "pw")
	require.NoError(t, err)

	stored, err := store.UserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob@dylan.com", stored.Email)
}

func TestVerify(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "bob@dylan.com", "toto1234!")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantOK   bool
	}{
		{name: "valid_credentials", email: "bob@dylan.com", password: "toto1234!", wantOK: true},
		{name: "wrong_password", email: "bob@dylan.com", password: "nope", wantOK: false},
		{name: "unknown_email", email: "ghost@dylan.com", password: "toto1234!", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, ok, err := svc.Verify(ctx, tt.email, tt.password)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, registered.ID, user.ID)
			} else {
				// Unknown email and wrong password are indistinguishable
				assert.Nil(t, user)
			}
		})
	}
}

func TestGetByID(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "bob@dylan.com", "pw")
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = svc.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}
