// Package stress fires batches of synthetic complaints at the intake API.
package stress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// Mode selects how requests are issued.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeParallel   Mode = "parallel"
)

const (
	MinRequests   = 1
	MaxRequests   = 500
	MaxErrorsKept = 15
)

// Submitter sends one complaint. client.HTTPClient implements it.
type Submitter interface {
	SubmitComplaint(ctx context.Context, req dto.CreateComplaintRequest) (*dto.TicketResponse, error)
}

// Result summarises a run.
type Result struct {
	Success  int
	Failed   int
	Total    int
	Duration time.Duration
	Average  time.Duration
	Errors   []string
}

var stressTypes = []domain.IncidentType{
	domain.IncidentTypeNoService,
	domain.IncidentTypeIntermittentService,
	domain.IncidentTypeSlowConnection,
	domain.IncidentTypeRouterIssue,
	domain.IncidentTypeBillingQuestion,
}

// ClampCount bounds n to [MinRequests, MaxRequests].
func ClampCount(n int) int {
	return min(max(n, MinRequests), MaxRequests)
}

// BuildPayloads cycles through the non-OTHER types; every fifth request carries a description.
func BuildPayloads(count int) []dto.CreateComplaintRequest {
	payloads := make([]dto.CreateComplaintRequest, 0, count)
	for i := 0; i < count; i++ {
		req := dto.CreateComplaintRequest{
			Email:        fmt.Sprintf("stress-%d@stress-test.local", i+1),
			LineNumber:   fmt.Sprintf("%09d", 990000000+i%1_000_000),
			IncidentType: stressTypes[i%len(stressTypes)].String(),
		}
		if i%5 == 0 {
			desc := fmt.Sprintf("Stress test request #%d", i+1)
			req.Description = &desc
		}
		payloads = append(payloads, req)
	}
	return payloads
}

// Run submits payloads. Parallel mode caps in-flight requests at concurrency
// (unbounded when concurrency <= 0). Individual failures are counted, never fatal.
func Run(ctx context.Context, submitter Submitter, payloads []dto.CreateComplaintRequest, mode Mode, concurrency int) (Result, error) {
	var (
		mu      sync.Mutex
		success int
		errs    []string
	)
	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if err == nil {
			success++
			return
		}
		errs = append(errs, err.Error())
	}

	start := time.Now()
	switch mode {
	case ModeSequential:
		for _, p := range payloads {
			if ctx.Err() != nil {
				record(ctx.Err())
				continue
			}
			_, err := submitter.SubmitComplaint(ctx, p)
			record(err)
		}
	case ModeParallel:
		g, gctx := errgroup.WithContext(ctx)
		if concurrency > 0 {
			g.SetLimit(concurrency)
		}
		for _, p := range payloads {
			g.Go(func() error {
				_, err := submitter.SubmitComplaint(gctx, p)
				record(err)
				return nil
			})
		}
		_ = g.Wait()
	default:
		return Result{}, fmt.Errorf("unknown mode %q", mode)
	}
	elapsed := time.Since(start)

	res := Result{
		Success:  success,
		Failed:   len(payloads) - success,
		Total:    len(payloads),
		Duration: elapsed,
		Errors:   errs,
	}
	if len(res.Errors) > MaxErrorsKept {
		res.Errors = res.Errors[:MaxErrorsKept]
	}
	if len(payloads) > 0 {
		res.Average = elapsed / time.Duration(len(payloads))
	}
	return res, nil
}
