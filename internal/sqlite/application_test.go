package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/civicmatch/internal/domain/application"
	"github.com/rpggio/civicmatch/internal/domain/profile"
	"github.com/rpggio/civicmatch/internal/repository"
	"github.com/stretchr/testify/require"
)

func seedApplicationFixtures(t *testing.T, db *DB) {
	t.Helper()
	insertProfile(t, db, "org1", profile.RoleOrganization)
	insertProfile(t, db, "dev1", profile.RoleDeveloper)
	insertProfile(t, db, "dev2", profile.RoleDeveloper)
	insertProject(t, db, "p1", "org1", seedTime)
}

func newApplication(id, developerID string, at time.Time) *application.Application {
	return &application.Application{
		ID:          id,
		ProjectID:   "p1",
		DeveloperID: developerID,
		Status:      application.StatusPending,
		CoverLetter: "hello",
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func TestApplicationRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	seedApplicationFixtures(t, db)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newApplication("a1", "dev1", seedTime)))

	got, err := repo.Get(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, application.StatusPending, got.Status)
	require.Equal(t, "Name dev1", got.DeveloperName)
	require.Equal(t, "Project p1", got.ProjectTitle)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestApplicationRepository_OneLiveApplicationPerDeveloper(t *testing.T) {
	db := NewTestDB(t)
	seedApplicationFixtures(t, db)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newApplication("a1", "dev1", seedTime)))
	err := repo.Create(ctx, newApplication("a2", "dev1", seedTime.Add(time.Minute)))
	require.ErrorIs(t, err, repository.ErrConflict)

	// A withdrawn application frees the slot.
	require.NoError(t, repo.UpdateStatus(ctx, "a1", application.StatusAccepted, false, seedTime.Add(time.Hour)))
	require.NoError(t, repo.UpdateStatus(ctx, "a1", application.StatusWithdrawn, false, seedTime.Add(2*time.Hour)))
	require.NoError(t, repo.Create(ctx, newApplication("a3", "dev1", seedTime.Add(3*time.Hour))))

	live, err := repo.FindLive(ctx, "p1", "dev1")
	require.NoError(t, err)
	require.Equal(t, "a3", live.ID)

	_, err = repo.FindLive(ctx, "p1", "dev2")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestApplicationRepository_Lists(t *testing.T) {
	db := NewTestDB(t)
	seedApplicationFixtures(t, db)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newApplication("a1", "dev1", seedTime)))
	require.NoError(t, repo.Create(ctx, newApplication("a2", "dev2", seedTime.Add(time.Minute))))
	require.NoError(t, repo.UpdateStatus(ctx, "a1", application.StatusAccepted, true, seedTime.Add(time.Hour)))

	byProject, err := repo.ListByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, byProject, 2)
	require.Equal(t, "a1", byProject[0].ID)

	byOrg, err := repo.ListByOrganization(ctx, "org1")
	require.NoError(t, err)
	require.Len(t, byOrg, 2)
	require.Equal(t, "a2", byOrg[0].ID)

	byDev, err := repo.ListByDeveloper(ctx, "dev1")
	require.NoError(t, err)
	require.Len(t, byDev, 1)
	require.True(t, byDev[0].StatusManager)

	ok, err := repo.IsStatusManager(ctx, "p1", "dev1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.IsStatusManager(ctx, "p1", "dev2")
	require.NoError(t, err)
	require.False(t, ok)

	err = repo.UpdateStatus(ctx, "missing", application.StatusRejected, false, seedTime)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestApplicationRepository_AcceptIsAtomic(t *testing.T) {
	db := NewFileTestDB(t)
	seedApplicationFixtures(t, db)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	const n = 10
	for i := 0; i < n; i++ {
		dev := fmt.Sprintf("cand%d", i)
		insertProfile(t, db, dev, profile.RoleDeveloper)
		require.NoError(t, repo.Create(ctx, newApplication("app-"+dev, dev, seedTime)))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		accepted  int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Accept(ctx, fmt.Sprintf("app-cand%d", i), 1, seedTime.Add(time.Hour))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, repository.ErrConflict):
				conflicts++
			default:
				t.Errorf("accept: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, accepted)
	require.Equal(t, n-1, conflicts)

	apps, err := repo.ListByProject(ctx, "p1")
	require.NoError(t, err)
	members := 0
	for _, app := range apps {
		if app.Status == application.StatusAccepted {
			members++
		}
	}
	require.Equal(t, 1, members)
}

func TestApplicationRepository_AcceptStates(t *testing.T) {
	db := NewTestDB(t)
	seedApplicationFixtures(t, db)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newApplication("a1", "dev1", seedTime)))
	require.NoError(t, repo.Accept(ctx, "a1", 0, seedTime.Add(time.Hour)))

	// Already accepted.
	require.ErrorIs(t, repo.Accept(ctx, "a1", 0, seedTime.Add(2*time.Hour)), repository.ErrConflict)
	require.ErrorIs(t, repo.Accept(ctx, "missing", 0, seedTime), repository.ErrNotFound)
}

func TestApplicationRepository_SetStatusManagerKeepsUpdatedAt(t *testing.T) {
	db := NewTestDB(t)
	seedApplicationFixtures(t, db)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	acceptedAt := seedTime.Add(time.Hour)
	require.NoError(t, repo.Create(ctx, newApplication("a1", "dev1", seedTime)))
	require.NoError(t, repo.Create(ctx, newApplication("a2", "dev2", seedTime)))
	require.NoError(t, repo.Accept(ctx, "a1", 0, acceptedAt))

	require.NoError(t, repo.SetStatusManager(ctx, "a1", true))
	app, err := repo.Get(ctx, "a1")
	require.NoError(t, err)
	require.True(t, app.StatusManager)
	require.True(t, app.UpdatedAt.Equal(acceptedAt))

	require.ErrorIs(t, repo.SetStatusManager(ctx, "a2", true), repository.ErrNotFound)
}
