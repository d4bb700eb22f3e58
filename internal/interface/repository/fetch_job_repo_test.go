package repository

import (
	"context"
	"testing"
	"time"

	"airmiles-service/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchJobRepository_LatestSuccessfulCovering(t *testing.T) {
	ctx := context.Background()
	repo := NewGormFetchJobRepository(newRepositoryDBForTest(t))
	started := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	newJob := func(w entity.DateWindow) *entity.FetchJob {
		return &entity.FetchJob{
			CarrierCode:     "UA",
			OriginCode:      "LHR",
			DestinationCode: "JFK",
			CabinClass:      entity.CabinEconomy,
			Window:          w,
			StartedAt:       started,
		}
	}
	complete := func(job *entity.FetchJob, status entity.FetchJobStatus, at time.Time) {
		job.Status = status
		job.CompletedAt = &at
		require.NoError(t, repo.Complete(ctx, job))
	}

	wide := newJob(window("2025-06-01", "2025-06-30"))
	require.NoError(t, repo.Create(ctx, wide))
	assert.NotEmpty(t, wide.ID)
	assert.Equal(t, entity.FetchJobPending, wide.Status)
	complete(wide, entity.FetchJobSuccess, started.Add(time.Minute))

	newer := newJob(window("2025-06-05", "2025-06-10"))
	require.NoError(t, repo.Create(ctx, newer))
	complete(newer, entity.FetchJobSuccess, started.Add(time.Hour))

	failed := newJob(window("2025-06-01", "2025-06-30"))
	require.NoError(t, repo.Create(ctx, failed))
	complete(failed, entity.FetchJobFailed, started.Add(2*time.Hour))

	pending := newJob(window("2025-06-01", "2025-06-30"))
	require.NoError(t, repo.Create(ctx, pending))

	got, err := repo.LatestSuccessfulCovering(ctx, "LHR", "JFK", "UA", entity.CabinEconomy, window("2025-06-06", "2025-06-08"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, newer.ID, got.ID)
	assert.Equal(t, entity.FetchJobSuccess, got.Status)

	got, err = repo.LatestSuccessfulCovering(ctx, "LHR", "JFK", "UA", entity.CabinEconomy, window("2025-06-01", "2025-06-07"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, wide.ID, got.ID)
	assert.Equal(t, "2025-06-30", got.Window.End.String())

	got, err = repo.LatestSuccessfulCovering(ctx, "LHR", "JFK", "UA", entity.CabinBusiness, window("2025-06-01", "2025-06-07"))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.LatestSuccessfulCovering(ctx, "LHR", "JFK", "UA", entity.CabinEconomy, window("2025-05-30", "2025-06-07"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFetchJobRepository_CompleteRecordsFailure(t *testing.T) {
	ctx := context.Background()
	db := newRepositoryDBForTest(t)
	repo := NewGormFetchJobRepository(db)

	job := &entity.FetchJob{
		CarrierCode:     "UA",
		OriginCode:      "LHR",
		DestinationCode: "JFK",
		CabinClass:      entity.CabinEconomy,
		Window:          window("2025-06-01", "2025-06-07"),
		StartedAt:       time.Now(),
	}
	require.NoError(t, repo.Create(ctx, job))

	done := time.Now()
	job.Status = entity.FetchJobFailed
	job.Error = "upstream timeout"
	job.CompletedAt = &done
	require.NoError(t, repo.Complete(ctx, job))

	var stored FetchJobs
	require.NoError(t, db.First(&stored, "id = ?", job.ID).Error)
	assert.Equal(t, "failed", stored.Status)
	assert.Equal(t, "upstream timeout", stored.ErrorMessage)
	assert.NotNil(t, stored.CompletedAt)
}
