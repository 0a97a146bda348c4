package services

import (
	"context"
	"errors"
	"log"
	"time"

	"bizcore/internal/caching"
	"bizcore/internal/repositories"
	"bizcore/internal/tenancy"

	"github.com/google/uuid"
)

// IsolationAuditor is the slice of tenancy.Auditor the service needs.
type IsolationAuditor interface {
	CheckSessionRole(ctx context.Context) ([]tenancy.Finding, error)
	Diff(ctx context.Context) ([]tenancy.Finding, error)
	EmpiricalCheck(ctx context.Context, tenantID uuid.UUID, tables []string) ([]tenancy.Finding, error)
}

// AuditService runs the isolation audit off the request path and makes the
// results available to operators. The audit is advisory: applying missing
// policies is a separate, explicit operation so a gap is never silently
// papered over.
type AuditService interface {
	Run(ctx context.Context) (*tenancy.Report, error)
	Latest(ctx context.Context) (*tenancy.Report, error)
	ReportURL(objectName string) (string, error)
	ApplyPolicies(ctx context.Context) error
}

type auditService struct {
	auditor       IsolationAuditor
	tenantRepo    repositories.TenantRepository
	cache         caching.CacheService
	archive       ReportArchive
	policies      *tenancy.PolicySet
	db            tenancy.Execer
	sampleTenants int
}

func NewAuditService(
	auditor IsolationAuditor,
	tenantRepo repositories.TenantRepository,
	cache caching.CacheService,
	archive ReportArchive,
	policies *tenancy.PolicySet,
	db tenancy.Execer,
	sampleTenants int,
) AuditService {
	if sampleTenants <= 0 {
		sampleTenants = 10
	}
	return &auditService{
		auditor:       auditor,
		tenantRepo:    tenantRepo,
		cache:         cache,
		archive:       archive,
		policies:      policies,
		db:            db,
		sampleTenants: sampleTenants,
	}
}

// Run performs the full audit: catalog diff plus an empirical count check
// per sampled active tenant. The audit runs unrestricted so the catalog and
// registry queries see every tenant.
func (s *auditService) Run(ctx context.Context) (*tenancy.Report, error) {
	ctx = tenancy.WithUnrestricted(ctx)

	report := &tenancy.Report{RanAt: time.Now().UTC()}

	// A session role that bypasses row security makes every other check
	// meaningless, so it is tested first.
	roleFindings, err := s.auditor.CheckSessionRole(ctx)
	if err != nil {
		return nil, err
	}
	report.Findings = append(report.Findings, roleFindings...)

	gaps, err := s.auditor.Diff(ctx)
	if err != nil {
		return nil, err
	}
	report.Findings = append(report.Findings, gaps...)

	tenantIDs, err := s.tenantRepo.ListActiveIDs(ctx, s.sampleTenants)
	if err != nil {
		return nil, err
	}
	tables := s.policies.Tables()
	for _, tenantID := range tenantIDs {
		mismatches, err := s.auditor.EmpiricalCheck(ctx, tenantID, tables)
		if err != nil {
			return nil, err
		}
		report.Findings = append(report.Findings, mismatches...)
	}

	if report.HasCritical() {
		log.Printf("CRITICAL: isolation audit found count mismatches: %d findings", len(report.Findings))
	}

	if s.cache != nil {
		if err := s.cache.SetLatestAuditReport(ctx, report); err != nil {
			log.Printf("WARN: failed to cache audit report: %v", err)
		}
	}
	if s.archive != nil {
		if object, err := s.archive.Store(ctx, report); err != nil {
			log.Printf("WARN: failed to archive audit report: %v", err)
		} else {
			log.Printf("Isolation audit report archived as %s", object)
		}
	}

	return report, nil
}

// Latest returns the cached report from the most recent run, or nil when
// none is cached.
func (s *auditService) Latest(ctx context.Context) (*tenancy.Report, error) {
	if s.cache == nil {
		return nil, nil
	}
	return s.cache.GetLatestAuditReport(ctx)
}

// ReportURL returns a short-lived download link for an archived report
// object, as named in the archive log line or an object listing.
func (s *auditService) ReportURL(objectName string) (string, error) {
	if s.archive == nil {
		return "", errors.New("report archive not configured")
	}
	return s.archive.PresignedURL(objectName, 15*time.Minute)
}

// ApplyPolicies re-applies the full policy set. Explicit remediation,
// invoked by an operator, never by the audit itself.
func (s *auditService) ApplyPolicies(ctx context.Context) error {
	return s.policies.Apply(tenancy.WithUnrestricted(ctx), s.db)
}
