// Package coordinator runs the generation pipeline: fingerprint, cache
// lookup, in-flight deduplication, remote submission with bounded polling,
// fallback composition, and result recording. At most one job runs per
// fingerprint; every concurrent caller for that fingerprint attaches to the
// same job and observes the same terminal outcome.
package coordinator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"animator/internal/cache"
	"animator/internal/domain"
	"animator/internal/fingerprint"
	"animator/internal/history"
	"animator/internal/infra"
	"animator/internal/telemetry"

	"sync"
)

// Options wires the coordinator's collaborators. Video and Tryon may be nil
// when the corresponding remote engine is not configured; those requests then
// go straight to Fallback.
type Options struct {
	Cache     *cache.Cache
	Ledger    *history.Ledger
	Telemetry *telemetry.Aggregator
	Video     domain.Generator
	Tryon     domain.Generator
	Fallback  domain.Generator

	PollInterval  time.Duration
	JobBudget     time.Duration
	MaxConcurrent int64
	VideoTTL      time.Duration
	TryonTTL      time.Duration

	Logger infra.Logger
}

// job is one in-flight generation. done is closed exactly once, after which
// artifact and err are immutable.
type job struct {
	fingerprint string
	done        chan struct{}
	artifact    *domain.Artifact
	err         error
}

// Coordinator owns the in-flight job table and executes jobs detached from
// any single caller's lifetime.
type Coordinator struct {
	opts Options
	sem  *semaphore.Weighted
	now  func() time.Time

	mu       sync.Mutex
	inflight map[string]*job
}

// New constructs a Coordinator.
func New(opts Options) *Coordinator {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.JobBudget <= 0 {
		opts.JobBudget = 300 * time.Second
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	return &Coordinator{
		opts:     opts,
		sem:      semaphore.NewWeighted(opts.MaxConcurrent),
		now:      time.Now,
		inflight: make(map[string]*job),
	}
}

// SetClock overrides the coordinator's time source for tests.
func (c *Coordinator) SetClock(now func() time.Time) { c.now = now }

// InflightCount reports the number of jobs currently running.
func (c *Coordinator) InflightCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

// RequestArtifact resolves req to an artifact: cache hit, attachment to an
// in-flight job, or a new job. The returned bool reports a cache hit. Each
// caller waits at most the job budget measured from its own arrival,
// regardless of how long the underlying job has already been running.
func (c *Coordinator) RequestArtifact(ctx context.Context, req domain.Request) (*domain.Artifact, bool, error) {
	start := c.now()
	fp := fingerprint.Derive(req)

	if artifact, ok := c.opts.Cache.Get(ctx, fp); ok {
		c.record(req, start, true, nil)
		return artifact, true, nil
	}

	j, initiated := c.attach(fp, req)
	if initiated {
		c.opts.Logger.Info().
			Str("fingerprint", fp).
			Str("kind", string(req.Kind)).
			Str("subject_id", req.SubjectID).
			Msg("coordinator: job started")
	}

	timer := time.NewTimer(c.opts.JobBudget)
	defer timer.Stop()

	select {
	case <-j.done:
		c.record(req, start, false, j.err)
		return j.artifact, false, j.err
	case <-timer.C:
		err := domain.NewGenerationError(domain.ErrRemoteTimedOut, req, "wait budget exhausted")
		c.record(req, start, false, err)
		return nil, false, err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// attach returns the in-flight job for fp, creating and starting it when
// absent. The second return reports whether this call initiated the job.
func (c *Coordinator) attach(fp string, req domain.Request) (*job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if j, ok := c.inflight[fp]; ok {
		return j, false
	}
	j := &job{fingerprint: fp, done: make(chan struct{})}
	c.inflight[fp] = j
	go c.run(j, req)
	return j, true
}

// run executes a job to its terminal state. The job's context descends from
// the background context, not from any caller: callers that give up do not
// cancel work other callers are still waiting on.
func (c *Coordinator) run(j *job, req domain.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.JobBudget)
	defer cancel()

	artifact, err := c.execute(ctx, req)
	if err == nil {
		c.finalize(ctx, j.fingerprint, req, artifact)
	}

	c.mu.Lock()
	delete(c.inflight, j.fingerprint)
	c.mu.Unlock()

	j.artifact = artifact
	j.err = err
	close(j.done)
}

func (c *Coordinator) execute(ctx context.Context, req domain.Request) (*domain.Artifact, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, domain.NewGenerationError(domain.ErrRemoteTimedOut, req, "queued past the job budget")
	}
	defer c.sem.Release(1)

	gen := c.generatorFor(req.Kind)
	if gen == nil {
		c.opts.Logger.Info().
			Str("kind", string(req.Kind)).
			Msg("coordinator: remote engine not configured, composing locally")
		return c.compose(ctx, req, c.opts.Fallback)
	}

	res, err := gen.Submit(ctx, req)
	if err != nil {
		// An unreachable engine degrades to the local compositor instead of
		// failing the request.
		c.opts.Logger.Warn().Err(err).
			Str("kind", string(req.Kind)).
			Msg("coordinator: remote submit failed, composing locally")
		return c.compose(ctx, req, c.opts.Fallback)
	}
	if res.Artifact != nil {
		return res.Artifact, nil
	}
	return c.poll(ctx, req, gen, res.TaskID)
}

// compose runs the fallback generator, which completes synchronously.
func (c *Coordinator) compose(ctx context.Context, req domain.Request, gen domain.Generator) (*domain.Artifact, error) {
	res, err := gen.Submit(ctx, req)
	if err != nil {
		return nil, domain.NewGenerationError(domain.ErrRemoteUnavailable, req, fmt.Sprintf("local composition failed: %v", err))
	}
	return res.Artifact, nil
}

// poll drives a remote task to completion. Individual poll errors are
// transient and retried on the next tick; only the context deadline or an
// explicit failed status terminates the loop.
func (c *Coordinator) poll(ctx context.Context, req domain.Request, gen domain.Generator, taskID string) (*domain.Artifact, error) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, domain.NewGenerationError(domain.ErrRemoteTimedOut, req, fmt.Sprintf("task %s still processing at budget", taskID))
		case <-ticker.C:
		}

		res, err := gen.Poll(ctx, taskID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, domain.NewGenerationError(domain.ErrRemoteTimedOut, req, fmt.Sprintf("task %s still processing at budget", taskID))
			}
			c.opts.Logger.Warn().Err(err).Str("task_id", taskID).Msg("coordinator: poll failed, retrying")
			continue
		}

		switch res.Status {
		case domain.PollCompleted:
			return &domain.Artifact{ArtifactURL: res.ArtifactURL}, nil
		case domain.PollFailed:
			return nil, domain.NewGenerationError(domain.ErrRemoteFailed, req, res.ErrDetail)
		default:
			// still processing
		}
	}
}

// finalize stamps, captions, caches, and records the produced artifact. Cache
// and ledger failures are logged but never turn a produced artifact into an
// error for waiters.
func (c *Coordinator) finalize(ctx context.Context, fp string, req domain.Request, artifact *domain.Artifact) {
	artifact.CreatedAt = c.now()
	artifact.Captions = captionsFor(req)

	if err := c.opts.Cache.Put(ctx, fp, *artifact, c.ttlFor(req.Kind)); err != nil {
		c.opts.Logger.Warn().Err(err).Str("fingerprint", fp).Msg("coordinator: artifact not cached")
	}
	artifact.TTLSeconds = int(c.ttlFor(req.Kind) / time.Second)

	entry := domain.HistoryEntry{
		ArtifactURL: artifact.ArtifactURL,
		Actions:     req.Actions,
		InputRef:    req.InputRef,
		ProducedAt:  artifact.CreatedAt,
	}
	if err := c.opts.Ledger.Append(ctx, req.SubjectID, entry); err != nil {
		c.opts.Logger.Warn().Err(err).Str("subject_id", req.SubjectID).Msg("coordinator: history append failed")
	}
	if err := c.opts.Ledger.SetLast(ctx, req.SubjectID, artifact.ArtifactURL); err != nil {
		c.opts.Logger.Warn().Err(err).Str("subject_id", req.SubjectID).Msg("coordinator: last-artifact update failed")
	}
}

func (c *Coordinator) generatorFor(kind domain.RequestKind) domain.Generator {
	switch kind {
	case domain.KindTryon:
		return c.opts.Tryon
	default:
		return c.opts.Video
	}
}

func (c *Coordinator) ttlFor(kind domain.RequestKind) time.Duration {
	if kind == domain.KindTryon {
		return c.opts.TryonTTL
	}
	return c.opts.VideoTTL
}

func (c *Coordinator) record(req domain.Request, start time.Time, cacheHit bool, err error) {
	if c.opts.Telemetry == nil {
		return
	}
	action := req.MetricAction()
	latency := c.now().Sub(start).Milliseconds()
	if err != nil {
		c.opts.Telemetry.RecordError(req.SubjectID, action, domain.ErrorKindLabel(err), err.Error())
		return
	}
	c.opts.Telemetry.RecordRequest(req.SubjectID, action, latency, cacheHit)
}

// captionsFor reproduces the caption conventions of the generation endpoints:
// animate gets a single fit caption for its primary action, compose captions
// each action, try-on results carry none.
func captionsFor(req domain.Request) []string {
	switch req.Kind {
	case domain.KindCompose:
		captions := make([]string, 0, len(req.Actions))
		for _, a := range req.Actions {
			captions = append(captions, capitalize(string(a)))
		}
		return captions
	case domain.KindTryon:
		return nil
	default:
		return []string{capitalize(string(req.PrimaryAction())) + " to show fit"}
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-('a'-'A')) + s[1:]
}
