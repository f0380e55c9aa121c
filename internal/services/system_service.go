package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
)

// BuildInfo is the release metadata echoed by /healthz and /readyz.
type BuildInfo struct {
	Version     string
	CommitSHA   string
	Environment string
	StartedAt   time.Time
}

// fill copies b into whichever report fields the probes left blank.
func (b BuildInfo) fill(report *SystemHealthReport) {
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&report.Version, b.Version},
		{&report.CommitSHA, b.CommitSHA},
		{&report.Environment, b.Environment},
	} {
		if v := strings.TrimSpace(*f.dst); v != "" {
			*f.dst = v
			continue
		}
		*f.dst = strings.TrimSpace(f.src)
	}
}

type SystemServiceDeps struct {
	HealthRepository repositories.HealthRepository
	Clock            func() time.Time
	Build            BuildInfo
}

type systemService struct {
	probes repositories.HealthRepository
	now    func() time.Time
	build  BuildInfo
}

var _ SystemService = (*systemService)(nil)

func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.HealthRepository == nil {
		return nil, errors.New("system service: health repository is required")
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	build := deps.Build
	if build.StartedAt.IsZero() {
		build.StartedAt = now()
	}
	return &systemService{probes: deps.HealthRepository, now: now, build: build}, nil
}

// Readiness runs the dependency probes and labels the result with the running build.
func (s *systemService) Readiness(ctx context.Context) (SystemHealthReport, error) {
	report, err := s.probes.Collect(ctx)
	if err != nil {
		return SystemHealthReport{}, err
	}
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = s.now().UTC()
	}
	s.build.fill(&report)
	return report, nil
}
