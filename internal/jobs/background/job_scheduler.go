package background

import (
	"context"
	"log"
	"sync"
	"time"

	"leadrank/internal/repositories"
	"leadrank/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

const purgeRetentionDays = 30

// JobScheduler runs the periodic maintenance work: purging soft-deleted
// leads past retention and keeping insights caches warm for active
// workspaces.
type JobScheduler struct {
	scheduler    gocron.Scheduler
	analyticsSvc services.AnalyticsService
	leadRepo     repositories.LeadRepository
	tenantRepo   repositories.TenantRepository
	jobs         map[string]gocron.Job
	mu           sync.RWMutex
}

func NewJobScheduler(analyticsSvc services.AnalyticsService, leadRepo repositories.LeadRepository, tenantRepo repositories.TenantRepository) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:    scheduler,
		analyticsSvc: analyticsSvc,
		leadRepo:     leadRepo,
		tenantRepo:   tenantRepo,
		jobs:         make(map[string]gocron.Job),
	}
	js.registerJobs()
	return js
}

func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	purgeJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.purgeDeletedLeads, context.Background()),
		gocron.WithName("lead-retention-purge"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create purge job: %v", err)
	} else {
		js.jobs["retention-purge"] = purgeJob
	}

	warmJob, err := js.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(js.warmInsightsCaches, context.Background()),
		gocron.WithName("insights-cache-warm"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create insights warm job: %v", err)
	} else {
		js.jobs["insights-warm"] = warmJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

// purgeDeletedLeads hard-deletes soft-deleted leads older than the
// retention window.
func (js *JobScheduler) purgeDeletedLeads(ctx context.Context) error {
	purged, err := js.leadRepo.PurgeDeleted(ctx, purgeRetentionDays)
	if err != nil {
		log.Printf("Failed to purge deleted leads: %v", err)
		return err
	}
	if purged > 0 {
		log.Printf("Purged %d leads past the %d-day retention window", purged, purgeRetentionDays)
	}
	return nil
}

// warmInsightsCaches recomputes the default insights window for active
// workspaces so dashboard loads stay off the cold path.
func (js *JobScheduler) warmInsightsCaches(ctx context.Context) error {
	tenants, err := js.tenantRepo.ListActive(ctx, 1000)
	if err != nil {
		log.Printf("Failed to list tenants for insights warm: %v", err)
		return err
	}

	semaphore := make(chan struct{}, 5)
	var wg sync.WaitGroup
	for _, tenant := range tenants {
		wg.Add(1)
		go func(tenantID uuid.UUID) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if _, err := js.analyticsSvc.Insights(ctx, tenantID, 0); err != nil {
				log.Printf("Failed to warm insights for tenant %s: %v", tenantID, err)
			}
		}(tenant.ID)
	}
	wg.Wait()
	return nil
}

// GetJobStatus reports the registered jobs, for the health endpoint.
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	return map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       names,
	}
}
