package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"bizcore/internal/models"
	"bizcore/internal/tenancy"

	"github.com/redis/go-redis/v9"
)

const (
	tenantTTL      = 10 * time.Minute
	auditReportTTL = 24 * time.Hour

	latestReportKey = "audit:isolation:latest"
)

type CacheService interface {
	// Tenant registry lookups, keyed by subdomain
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	SetTenant(ctx context.Context, tenant *models.Tenant) error
	InvalidateTenant(ctx context.Context, subdomain string) error

	// Latest isolation audit report
	GetLatestAuditReport(ctx context.Context) (*tenancy.Report, error)
	SetLatestAuditReport(ctx context.Context, report *tenancy.Report) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func tenantKey(subdomain string) string {
	return fmt.Sprintf("tenant:subdomain:%s", subdomain)
}

func (s *redisCacheService) GetTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	data, err := s.client.Get(ctx, tenantKey(subdomain)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var tenant models.Tenant
	if err := json.Unmarshal(data, &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (s *redisCacheService) SetTenant(ctx context.Context, tenant *models.Tenant) error {
	data, err := json.Marshal(tenant)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, tenantKey(tenant.Subdomain), data, tenantTTL).Err()
}

func (s *redisCacheService) InvalidateTenant(ctx context.Context, subdomain string) error {
	return s.client.Del(ctx, tenantKey(subdomain)).Err()
}

func (s *redisCacheService) GetLatestAuditReport(ctx context.Context) (*tenancy.Report, error) {
	data, err := s.client.Get(ctx, latestReportKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var report tenancy.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *redisCacheService) SetLatestAuditReport(ctx context.Context, report *tenancy.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, latestReportKey, data, auditReportTTL).Err()
}
