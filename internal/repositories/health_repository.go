package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const defaultDependencyTimeout = 1500 * time.Millisecond

// DependencyCheck describes a dependency probe executed during readiness checks.
type DependencyCheck struct {
	Name    string
	Timeout time.Duration
	Check   func(context.Context) error
}

type dependencyHealthRepository struct {
	checks         []DependencyCheck
	defaultTimeout time.Duration
}

var _ HealthRepository = (*dependencyHealthRepository)(nil)

// NewDependencyHealthRepository constructs a HealthRepository that evaluates
// the provided check set and fails on the first unhealthy dependency.
func NewDependencyHealthRepository(checks []DependencyCheck) (HealthRepository, error) {
	if len(checks) == 0 {
		return nil, errors.New("health repository: at least one dependency check is required")
	}
	repo := &dependencyHealthRepository{
		checks:         make([]DependencyCheck, len(checks)),
		defaultTimeout: defaultDependencyTimeout,
	}
	copy(repo.checks, checks)
	return repo, nil
}

func (r *dependencyHealthRepository) Ping(ctx context.Context) error {
	if ctx == nil {
		return errors.New("health repository: context is required")
	}
	for _, check := range r.checks {
		name := strings.TrimSpace(check.Name)
		if name == "" {
			return errors.New("health repository: dependency check missing name")
		}
		if check.Check == nil {
			return fmt.Errorf("health repository: dependency %s missing check function", name)
		}
		timeout := check.Timeout
		if timeout <= 0 {
			timeout = r.defaultTimeout
		}
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		err := check.Check(probeCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("dependency %s unhealthy: %w", name, err)
		}
	}
	return nil
}
