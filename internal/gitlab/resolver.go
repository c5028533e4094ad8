package gitlab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	gitlab "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/time/rate"
)

const (
	maxAttempts = 3
	baseDelay   = 1 * time.Second

	// When the remaining request quota drops below lowQuotaThreshold, a
	// fixed cooldown is inserted after the response regardless of status.
	lowQuotaThreshold = 10
	lowQuotaCooldown  = 2 * time.Second
)

// ErrNotFound reports that the project does not exist (or is invisible to
// the token). Terminal: never retried.
var ErrNotFound = errors.New("gitlab project not found")

// LookupError reports a project-id lookup that exhausted its retry budget.
type LookupError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("looking up project %s failed after %d attempts: %v",
		e.Path, e.Attempts, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// PathError reports a display name that cannot be split into a
// namespace/project path.
type PathError struct {
	DisplayName string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("display name %q is not a namespace/project path", e.DisplayName)
}

// SplitProjectPath splits a display name of the form
// namespace[/subgroup...]/project into its namespace and project name. The
// last segment is the project name, everything before it is the namespace.
func SplitProjectPath(displayName string) (namespace, name string, err error) {
	parts := strings.Split(displayName, "/")
	if displayName == "" || len(parts) < 2 {
		return "", "", &PathError{DisplayName: displayName}
	}
	return strings.Join(parts[:len(parts)-1], "/"), parts[len(parts)-1], nil
}

// Resolver converts namespace/project paths into the numeric project ids
// the import format requires. Retries are owned here, not by the
// underlying client: 429 honours the server's Retry-After, other failures
// back off exponentially, 404 is terminal.
type Resolver struct {
	client *gitlab.Client
	sleep  func(context.Context, time.Duration)
}

// NewResolver returns a Resolver authenticated with token. baseURL
// overrides the API endpoint for self-hosted instances; empty means
// gitlab.com.
func NewResolver(token, baseURL string) (*Resolver, error) {
	opts := []gitlab.ClientOptionFunc{
		// Retry and throttle decisions belong to ProjectID's loop.
		gitlab.WithoutRetries(),
		gitlab.WithCustomLimiter(rate.NewLimiter(rate.Inf, 0)),
	}
	if baseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(baseURL))
	}

	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating GitLab client: %w", err)
	}
	return &Resolver{client: client, sleep: sleepContext}, nil
}

// ProjectID resolves the numeric id of the project at path
// ("namespace/project"). Up to three attempts are made; the final attempt
// fails without sleeping.
func (r *Resolver) ProjectID(ctx context.Context, path string) (int64, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		project, resp, err := r.client.Projects.GetProject(path, nil, gitlab.WithContext(ctx))
		r.cooldownIfLow(ctx, resp)

		if err == nil {
			slog.Debug("resolved GitLab project id", "path", path, "id", project.ID)
			return int64(project.ID), nil
		}
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return 0, ErrNotFound
		}
		lastErr = err

		if attempt == maxAttempts-1 {
			break
		}
		delay := baseDelay << attempt
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			if ra := retryAfter(resp); ra > 0 {
				delay = ra
			}
			slog.Warn("GitLab rate limit exceeded, retrying",
				"path", path, "delay", delay, "attempt", attempt+1)
		} else {
			slog.Warn("GitLab lookup failed, retrying",
				"path", path, "delay", delay, "attempt", attempt+1, "error", err)
		}
		r.sleep(ctx, delay)
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
	}
	return 0, &LookupError{Path: path, Attempts: maxAttempts, Err: lastErr}
}

// cooldownIfLow pauses when the remaining request quota is under the
// low-water mark. Applied after every response, whatever its status.
func (r *Resolver) cooldownIfLow(ctx context.Context, resp *gitlab.Response) {
	if resp == nil {
		return
	}
	remaining := resp.Header.Get("RateLimit-Remaining")
	if remaining == "" {
		return
	}
	n, err := strconv.Atoi(remaining)
	if err != nil || n >= lowQuotaThreshold {
		return
	}
	slog.Debug("GitLab rate limit low, pausing", "remaining", n)
	r.sleep(ctx, lowQuotaCooldown)
}

func retryAfter(resp *gitlab.Response) time.Duration {
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
