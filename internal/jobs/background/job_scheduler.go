package background

import (
	"context"
	"log"
	"sync"
	"time"

	"bizcore/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler runs the isolation audit off the request path so policy
// drift is caught even when no operator asks for a report.
type JobScheduler struct {
	scheduler gocron.Scheduler
	auditSvc  services.AuditService
	interval  time.Duration
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates a scheduler with the audit job registered.
func NewJobScheduler(auditSvc services.AuditService, interval time.Duration) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = time.Hour
	}

	js := &JobScheduler{
		scheduler: scheduler,
		auditSvc:  auditSvc,
		interval:  interval,
		jobs:      make(map[string]gocron.Job),
	}

	if err := js.registerJobs(); err != nil {
		return nil, err
	}

	return js, nil
}

func (js *JobScheduler) registerJobs() error {
	job, err := js.scheduler.NewJob(
		gocron.DurationJob(js.interval),
		gocron.NewTask(js.runIsolationAudit),
		gocron.WithName("isolation-audit"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	js.mu.Lock()
	js.jobs["isolation-audit"] = job
	js.mu.Unlock()
	return nil
}

func (js *JobScheduler) runIsolationAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := js.auditSvc.Run(ctx)
	if err != nil {
		log.Printf("ERROR: scheduled isolation audit failed: %v", err)
		return
	}
	if len(report.Findings) == 0 {
		log.Printf("Isolation audit clean")
		return
	}
	log.Printf("Isolation audit completed with %d findings (critical=%v)", len(report.Findings), report.HasCritical())
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop shuts the scheduler down, waiting for running jobs
func (js *JobScheduler) Stop() error {
	return js.scheduler.Shutdown()
}
