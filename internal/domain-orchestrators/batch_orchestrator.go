package orchestrators

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ochairo/sbomgen/internal/domain/interfaces"
)

// Generator produces one document per request
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// BatchOrchestrator runs several targets of one build with bounded concurrency
type BatchOrchestrator struct {
	generator   Generator
	concurrency int
	logger      interfaces.Logger
}

// NewBatchOrchestrator creates a batch runner; concurrency < 1 means 1
func NewBatchOrchestrator(generator Generator, concurrency int, logger interfaces.Logger) *BatchOrchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &BatchOrchestrator{generator: generator, concurrency: concurrency, logger: logger}
}

// BatchResult is the outcome of one target
type BatchResult struct {
	Request  GenerateRequest
	Path     string
	Duration time.Duration
	Error    error
}

// Run generates every request and returns results in request order.
// A failing target is recorded in its result and never stops the others.
func (b *BatchOrchestrator) Run(ctx context.Context, reqs []GenerateRequest) []BatchResult {
	results := make([]BatchResult, len(reqs))
	var g errgroup.Group
	g.SetLimit(b.concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			start := time.Now()
			path, err := b.generator.Generate(ctx, req)
			results[i] = BatchResult{Request: req, Path: path, Duration: time.Since(start), Error: err}
			if err != nil {
				b.logger.Error("target failed",
					interfaces.F("binary", req.BinaryName),
					interfaces.F("error", err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Failed counts results carrying an error
func Failed(results []BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Error != nil {
			n++
		}
	}
	return n
}
