package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CrisisConnect/internal/domain/model"
	"CrisisConnect/internal/domain/repository"
	fsclient "CrisisConnect/internal/infrastructure/firestore"
)

// newFirestoreTestRepository エミュレータ上のテストごとに独立したプロジェクトを使う
func newFirestoreTestRepository(t *testing.T, clock clockwork.Clock) repository.RequestsRepository {
	t.Helper()

	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST が設定されていないためスキップ")
	}

	ctx := context.Background()
	projectID := fmt.Sprintf("crisisconnect-test-%d", time.Now().UnixNano())

	client, err := fsclient.NewFirestoreClient(ctx, projectID)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewFirestoreRequestsRepository(client, clock)
}

func TestFirestoreRequestsRepository_CreateAndGetAll(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC))
	repo := newFirestoreTestRepository(t, clock)
	ctx := context.Background()

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	contact := "555-0100"
	first := &model.Request{Name: "Asha", Contact: &contact, Needs: "medical", Lat: 28.6139, Lon: 77.2090, Priority: model.PriorityHigh}
	require.NoError(t, repo.Create(ctx, first))
	assert.Equal(t, int64(1), first.ID)
	assert.True(t, first.CreatedAt.Equal(clock.Now()))

	second := &model.Request{Name: "Ravi", Needs: "food", Lat: 1, Lon: 2, Priority: model.PriorityMedium}
	require.NoError(t, repo.Create(ctx, second))
	assert.Equal(t, int64(2), second.ID)

	all, err = repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].ID)
	require.NotNil(t, all[0].Contact)
	assert.Equal(t, "555-0100", *all[0].Contact)
	assert.Equal(t, model.PriorityHigh, all[0].Priority)
	assert.Equal(t, int64(2), all[1].ID)
	assert.Nil(t, all[1].Contact)
}

func TestFirestoreRequestsRepository_InvalidPriority(t *testing.T) {
	repo := newFirestoreTestRepository(t, clockwork.NewRealClock())

	err := repo.Create(context.Background(), &model.Request{Name: "x", Needs: "y"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrConstraintViolation))
}
