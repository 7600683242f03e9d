package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"printquote/backend/internal/catalog"
	"printquote/backend/internal/domain"
	"printquote/backend/internal/simulation"
	"printquote/backend/internal/xid"
)

// StartSimulation queues a simulation of every option combination of the
// product and returns the queued run. An oversize space without sample or
// force is rejected up front with a *simulation.TooLarge.
func (s *Service) StartSimulation(ctx context.Context, productID int64, req domain.SimulationRequest) (domain.SimulationRun, error) {
	if err := requireRole(ctx, domain.RoleAdmin, domain.RoleOperator); err != nil {
		return domain.SimulationRun{}, err
	}
	bundle, err := s.repo.GetProductBundle(ctx, productID)
	if err != nil {
		return domain.SimulationRun{}, fmt.Errorf("load product %d: %w", productID, err)
	}

	in := bundle.SimulationInput()
	total := simulation.CountCombinations(in.OptionTypes)
	if total > simulation.MaxCases && !req.Sample && !req.ForceRun {
		return domain.SimulationRun{}, &simulation.TooLarge{Total: total, SampleSize: simulation.MaxCases}
	}

	opts := simulation.Options{Sample: req.Sample, ForceRun: req.ForceRun, Seed: req.Seed}
	if opts.Seed == 0 {
		opts.Seed = s.simulationSeed
	}
	quantity := req.Quantity
	if quantity < 1 {
		quantity = s.simulationQuantity
	}

	actor, _ := ActorFromContext(ctx)
	now := s.now()
	run := domain.SimulationRun{
		ID:          xid.New("sim"),
		ProductID:   productID,
		Status:      domain.SimulationQueued,
		Total:       total,
		Sampled:     total > simulation.MaxCases && !req.ForceRun,
		RequestedBy: actor.Username,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if run.Sampled {
		run.Total = simulation.MaxCases
	}
	if err := s.repo.SaveSimulationRun(ctx, run); err != nil {
		return domain.SimulationRun{}, fmt.Errorf("save simulation run: %w", err)
	}
	s.logAudit(ctx, "simulation_start", "product", strconv.FormatInt(productID, 10),
		fmt.Sprintf("run=%s,total=%d,sampled=%t", run.ID, run.Total, run.Sampled))

	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		s.runSimulation(run, bundle, quantity, opts)
	}()
	return run, nil
}

func (s *Service) GetSimulation(ctx context.Context, runID string) (*domain.SimulationRun, error) {
	if err := requireRole(ctx, domain.RoleAdmin, domain.RoleOperator); err != nil {
		return nil, err
	}
	return s.repo.GetSimulationRun(ctx, runID)
}

// runSimulation waits for a worker slot, then evaluates the run and records
// progress. A run still waiting when the service stops is marked failed.
func (s *Service) runSimulation(run domain.SimulationRun, bundle *catalog.Bundle, quantity int, opts simulation.Options) {
	ctx := s.jobsCtx
	log := s.logger.With("run_id", run.ID, "product_id", run.ProductID)

	if err := s.workers.Acquire(ctx, 1); err != nil {
		s.finishRun(run, nil, fmt.Errorf("not started: %w", err))
		return
	}
	defer s.workers.Release(1)

	var mu sync.Mutex
	run.Status = domain.SimulationRunning
	s.saveRun(run)

	opts.Progress = func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		run.Processed = done
		run.Total = total
		run.UpdatedAt = s.now()
		s.saveRun(run)
	}

	log.Info("simulation started", "total", run.Total, "sampled", run.Sampled)
	res, err := simulation.NewEngine(bundle.SimulationInput(), bundle.Pricer(quantity)).Run(opts)

	mu.Lock()
	defer mu.Unlock()
	s.finishRun(run, &res, err)
	if err == nil {
		log.Info("simulation completed",
			"total", res.Total, "passed", res.Passed, "warned", res.Warned, "errored", res.Errored)
		if len(res.Unchecked) > 0 {
			log.Warn("simulation skipped rules it cannot check", "constraint_ids", res.Unchecked)
		}
	}
}

func (s *Service) finishRun(run domain.SimulationRun, res *simulation.Result, err error) {
	now := s.now()
	run.UpdatedAt = now
	run.FinishedAt = &now
	if err != nil {
		run.Status = domain.SimulationFailed
		run.Error = err.Error()
		s.logger.Error("simulation failed", "run_id", run.ID, "error", err)
	} else {
		run.Status = domain.SimulationCompleted
		run.Result = res
		run.Total = res.Total
		run.Processed = res.Total
		run.Sampled = res.Sampled
		run.Seed = res.Seed
	}
	s.saveRun(run)
}

func (s *Service) saveRun(run domain.SimulationRun) {
	// The request context is gone by now; progress writes use a fresh one.
	if err := s.repo.SaveSimulationRun(context.Background(), run); err != nil {
		s.logger.Warn("simulation run save failed", "run_id", run.ID, "status", run.Status, "error", err)
	}
}

// Shutdown stops queued simulations from starting and waits for running ones
// until ctx is done.
func (s *Service) Shutdown(ctx context.Context) error {
	s.stop()
	done := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("simulations still running"), ctx.Err())
	}
}
