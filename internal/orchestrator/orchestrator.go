// Package orchestrator fans one translation request out to every
// configured provider in parallel and collects the candidates.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/translator"
)

type Config struct {
	// Timeout bounds each provider call.
	Timeout time.Duration
	// MaxAttempts is the total tries per provider including the first.
	MaxAttempts int
}

type Outcome struct {
	Results   []translator.Result
	Errors    []error
	Succeeded int
	Failed    int
}

type Orchestrator struct {
	services []translator.Service
	config   Config
}

func New(services []translator.Service, config Config) *Orchestrator {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	return &Orchestrator{services: services, config: config}
}

// Execute runs every provider concurrently against req, retrying each up
// to MaxAttempts times, and returns all candidate results. A provider
// that returns an in-band error string counts as failed.
func (o *Orchestrator) Execute(ctx context.Context, cfg translator.ServiceConfig, req translator.Request) *Outcome {
	outcome := &Outcome{}

	type attempt struct {
		res *translator.Result
		err error
	}
	results := make(chan attempt, len(o.services))

	var wg sync.WaitGroup
	for _, svc := range o.services {
		wg.Add(1)
		go func(service translator.Service) {
			defer wg.Done()

			var last attempt
			for try := 0; try < o.config.MaxAttempts; try++ {
				serviceCtx, cancel := context.WithTimeout(ctx, o.config.Timeout)
				res, err := service.Translate(serviceCtx, cfg, req)
				cancel()

				last = attempt{res: res, err: err}
				if err == nil && res.Error == "" {
					break
				}
				if ctx.Err() != nil {
					break
				}
			}
			results <- last
		}(svc)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for a := range results {
		switch {
		case a.err != nil:
			outcome.Errors = append(outcome.Errors, a.err)
			outcome.Failed++
		case a.res.Error != "":
			outcome.Errors = append(outcome.Errors, fmt.Errorf("%s: %s", a.res.ServiceName, a.res.Error))
			outcome.Failed++
		default:
			outcome.Results = append(outcome.Results, *a.res)
			outcome.Succeeded++
		}
	}
	return outcome
}
