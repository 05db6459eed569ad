package jobs

import (
	"context"
	"log/slog"
	"time"

	"stagedoor/internal/repository"
	"stagedoor/internal/search"
)

const reconcileInterval = 10 * time.Minute

// ReconcileJob periodically repairs what best-effort cascades and lost
// messages leave behind: principals still pointing at deleted venues,
// and index entries drifting from the database.
type ReconcileJob struct {
	repos  *repository.Repositories
	search *search.Client
	ticker *time.Ticker
	done   chan bool
}

func NewReconcileJob(repos *repository.Repositories, searchClient *search.Client) *ReconcileJob {
	return &ReconcileJob{
		repos:  repos,
		search: searchClient,
		done:   make(chan bool),
	}
}

// Start begins the periodic sweep. The first pass runs immediately.
func (j *ReconcileJob) Start(ctx context.Context) {
	slog.Info("Starting reconciliation job", "interval", reconcileInterval)

	j.ticker = time.NewTicker(reconcileInterval)

	go j.sweep(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.sweep(ctx)
			case <-j.done:
				slog.Info("Reconciliation job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the job.
func (j *ReconcileJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	j.done <- true
}

func (j *ReconcileJob) sweep(ctx context.Context) {
	j.sweepOrphanedPrincipals(ctx)
	j.resyncIndex(ctx)
}

// sweepOrphanedPrincipals demotes principals whose venue no longer
// exists. This finishes the work of any venue-delete cascade that only
// partially succeeded.
func (j *ReconcileJob) sweepOrphanedPrincipals(ctx context.Context) {
	venues, err := j.repos.Venues.List(ctx)
	if err != nil {
		slog.Error("Reconciliation: failed to list venues", "error", err)
		return
	}
	known := make(map[string]bool, len(venues))
	for _, venue := range venues {
		known[venue.ID] = true
	}

	holders, err := j.repos.Users.ListVenueRoles(ctx)
	if err != nil {
		slog.Error("Reconciliation: failed to list venue roles", "error", err)
		return
	}

	demoted := 0
	for _, holder := range holders {
		if holder.VenueID != "" && known[holder.VenueID] {
			continue
		}
		if err := j.repos.Users.ResetToUser(ctx, holder.UID); err != nil {
			slog.Error("Reconciliation: failed to demote orphaned principal",
				"uid", holder.UID, "venue_id", holder.VenueID, "error", err)
			continue
		}
		demoted++
	}

	if demoted > 0 {
		slog.Info("Reconciliation demoted orphaned principals", "count", demoted)
	}
}

// resyncIndex rewrites every event into the search index so lost
// change messages eventually heal.
func (j *ReconcileJob) resyncIndex(ctx context.Context) {
	events, err := j.repos.Events.List(ctx, "")
	if err != nil {
		slog.Error("Reconciliation: failed to list events", "error", err)
		return
	}

	failed := 0
	for i := range events {
		if err := j.search.IndexEvent(ctx, &events[i]); err != nil {
			failed++
		}
	}

	if failed > 0 {
		slog.Error("Reconciliation: some events failed to index", "failed", failed, "total", len(events))
	} else {
		slog.Debug("Reconciliation resynced index", "events", len(events))
	}
}
