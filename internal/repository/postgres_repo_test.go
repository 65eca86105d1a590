package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/senyabanana/rfq-service/internal/db"
	"github.com/senyabanana/rfq-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres запускает PostgreSQL контейнер и применяет миграции.
func setupPostgres(t *testing.T) *PostgresRFQRepository {
	t.Helper()
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("TEST_INTEGRATION is not set")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("rfq_test"),
		postgres.WithUsername("rfq"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations("file://../../db/migration", dsn))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	for _, v := range testVendors() {
		_, err := pool.Exec(ctx, `INSERT INTO vendor (id, name, email) VALUES ($1, $2, $3)`, v.ID, v.Name, v.Email)
		require.NoError(t, err)
	}
	return NewPostgresRFQRepository(pool)
}

func createPostgresSolicitation(t *testing.T, repo *PostgresRFQRepository, vendorIds ...string) string {
	t.Helper()
	sol := openSolicitation(uuid.New().String(), vendorIds...)
	for id, inv := range sol.InvitedVendors {
		inv.AccessTokenRef = uuid.New().String()
		sol.InvitedVendors[id] = inv
	}
	_, err := repo.CreateSolicitation(context.Background(), sol, now)
	require.NoError(t, err)
	return sol.ID
}

func TestPostgresSolicitationLifecycle(t *testing.T) {
	repo := setupPostgres(t)
	ctx := context.Background()

	_, err := repo.CreateSolicitation(ctx, openSolicitation(uuid.New().String(), "v1", "ghost"), now)
	assert.True(t, models.IsKind(err, models.ValidationError))

	id := createPostgresSolicitation(t, repo, "v1", "v2", "v3")
	sol, err := repo.GetSolicitation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.OpenSolicitation, sol.Status)
	assert.Len(t, sol.InvitedVendors, 3)
	assert.Equal(t, "Roof repair", sol.Title)
	assert.Equal(t, "l1", sol.Lines[0].ID)
	assert.True(t, sol.Deadline.Equal(now.Add(7*24*time.Hour)))

	_, err = repo.GetSolicitation(ctx, "missing")
	assert.True(t, models.IsKind(err, models.NotFoundError))

	bid, err := repo.RecordBid(ctx, id, "v1", validBid(), now)
	require.NoError(t, err)
	assert.Equal(t, models.SubmittedBid, bid.Status)

	_, err = repo.RecordBid(ctx, id, "v1", validBid(), now)
	assert.True(t, models.IsKind(err, models.ConflictError))

	badLine := validBid()
	badLine.Lines[0].LineID = "unknown"
	_, err = repo.RecordBid(ctx, id, "v2", badLine, now)
	assert.True(t, models.IsKind(err, models.ValidationError))

	_, err = repo.DeclineInvitation(ctx, id, "v3", now)
	require.NoError(t, err)
	_, err = repo.RecordBid(ctx, id, "v3", validBid(), now)
	assert.True(t, models.IsKind(err, models.ForbiddenError))

	_, err = repo.RecordBid(ctx, id, "v2", validBid(), now.Add(8*24*time.Hour))
	assert.True(t, models.IsKind(err, models.ExpiredError))

	sol, err = repo.GetSolicitation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RespondedVendor, sol.InvitedVendors["v1"].Status)
	assert.Equal(t, models.DeclinedVendor, sol.InvitedVendors["v3"].Status)

	bids, err := repo.ListBids(ctx, id)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	rank := 1
	scored := bids[0]
	scored.Scoring = &models.ScoringResult{PriceScore: 100, TimeScore: 100, QualityScore: 100, WeightedScore: 100}
	scored.Rank = &rank
	require.NoError(t, repo.SaveScoring(ctx, id, []models.RankedOffer{{Bid: scored, Scoring: *scored.Scoring, Rank: 1}}))

	bids, err = repo.ListBids(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, bids[0].Scoring)
	assert.Equal(t, 100.0, bids[0].Scoring.WeightedScore)
	require.NotNil(t, bids[0].Rank)
	assert.Equal(t, 1, *bids[0].Rank)

	_, err = repo.TransitionToAwarded(ctx, id, "v2", now)
	assert.True(t, models.IsKind(err, models.ValidationError))

	awarded, err := repo.TransitionToAwarded(ctx, id, "v1", now)
	require.NoError(t, err)
	assert.Equal(t, models.AwardedSolicitation, awarded.Status)
	require.NotNil(t, awarded.AwardedTo)
	assert.Equal(t, "v1", *awarded.AwardedTo)
	assert.Greater(t, awarded.Version, sol.Version)

	_, err = repo.TransitionToCancelled(ctx, id, now)
	assert.True(t, models.IsKind(err, models.ConflictError))
}

func TestPostgresConcurrentBidsAndAwards(t *testing.T) {
	repo := setupPostgres(t)
	ctx := context.Background()
	id := createPostgresSolicitation(t, repo, "v1", "v2")

	var wg sync.WaitGroup
	bidErrs := make([]error, 4)
	for i := range bidErrs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, bidErrs[i] = repo.RecordBid(ctx, id, "v1", validBid(), now)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, countSuccesses(t, bidErrs))

	_, err := repo.RecordBid(ctx, id, "v2", validBid(), now)
	require.NoError(t, err)

	awardErrs := make([]error, 2)
	for i, vendor := range []string{"v1", "v2"} {
		wg.Add(1)
		go func(i int, vendor string) {
			defer wg.Done()
			_, awardErrs[i] = repo.TransitionToAwarded(ctx, id, vendor, now)
		}(i, vendor)
	}
	wg.Wait()
	assert.Equal(t, 1, countSuccesses(t, awardErrs))

	bids, err := repo.ListBids(ctx, id)
	require.NoError(t, err)
	awardedBids := 0
	for _, b := range bids {
		if b.Status == models.AwardedBid {
			awardedBids++
		}
	}
	assert.Equal(t, 1, awardedBids)
}

func countSuccesses(t *testing.T, errs []error) int {
	t.Helper()
	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.True(t, models.IsKind(err, models.ConflictError), "unexpected error %v", err)
	}
	return successes
}
