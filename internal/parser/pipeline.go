package parser

import (
	"context"
	"errors"
	"log/slog"

	"relaybot/internal/dispatch"
	"relaybot/internal/domain"
)

// Sender is the outbound side a pipeline dispatches through.
type Sender interface {
	Send(ctx context.Context, n domain.Notification, endpoint string) (*dispatch.Response, error)
}

// Pipeline runs one category's stages for an inbound event:
// bot drop, allow-list filter, normalization, endpoint resolution, dispatch.
// Stage order is fixed; a failure in one pipeline never reaches another.
type Pipeline struct {
	rules    Rules
	filter   *Filter
	resolver *dispatch.Resolver
	sender   Sender
	logger   *slog.Logger
}

// PipelineConfig wires one category's pipeline.
type PipelineConfig struct {
	Rules    Rules
	Policies domain.PolicyMap
	Resolver *dispatch.Resolver
	Sender   Sender
	Logger   *slog.Logger
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		rules:    cfg.Rules,
		filter:   NewFilter(cfg.Rules.Category, cfg.Policies, cfg.Logger),
		resolver: cfg.Resolver,
		sender:   cfg.Sender,
		logger:   cfg.Logger,
	}
}

func (p *Pipeline) Category() string { return p.rules.Category }

// Handle processes one event through this category. The returned error is
// informational for the caller's log; it never aborts sibling categories.
func (p *Pipeline) Handle(ctx context.Context, ev domain.InboundEvent) error {
	if ev.Bot {
		return nil
	}

	if !p.filter.Allowed(ev.Tenant, ev.ChannelID, ev.ChannelName) {
		return nil
	}

	p.logger.Info("event accepted",
		"category", p.rules.Category,
		"tenant", ev.Tenant,
		"channel", ev.ChannelName,
		"author", ev.Author,
	)

	n := Normalize(ev, p.rules)

	endpoint, err := p.resolver.Resolve(ev.Tenant)
	if err != nil {
		return err
	}

	if _, err := p.sender.Send(ctx, n, endpoint); err != nil {
		return err
	}

	p.logger.Debug("notification dispatched",
		"category", p.rules.Category,
		"type", n.Type,
		"event_id", n.ID,
	)
	return nil
}

// Recorder receives every inbound event before any category runs,
// regardless of filtering. Used for transcript logging.
type Recorder interface {
	Record(ctx context.Context, ev domain.InboundEvent) error
}

// Engine fans every inbound event to all registered category pipelines, in
// registration order. Pipelines are failure-isolated: errors are logged
// here and never propagate across categories.
type Engine struct {
	pipelines []*Pipeline
	recorder  Recorder
	logger    *slog.Logger
}

// EngineConfig wires the engine.
type EngineConfig struct {
	Pipelines []*Pipeline
	Recorder  Recorder // optional
	Logger    *slog.Logger
}

func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{
		pipelines: cfg.Pipelines,
		recorder:  cfg.Recorder,
		logger:    cfg.Logger,
	}
}

// Run consumes events from the bus until the context is cancelled or the
// bus closes.
func (e *Engine) Run(ctx context.Context, bus domain.EventBus) {
	e.logger.Info("parser engine started", "categories", len(e.pipelines))
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("parser engine stopping")
			return
		case ev, ok := <-bus.Subscribe():
			if !ok {
				return
			}
			e.Process(ctx, ev)
		}
	}
}

// Process runs one event through the transcript recorder and every
// category pipeline.
func (e *Engine) Process(ctx context.Context, ev domain.InboundEvent) {
	if e.recorder != nil {
		if err := e.recorder.Record(ctx, ev); err != nil {
			e.logger.Error("transcript record failed", "event_id", ev.ID, "err", err)
		}
	}

	for _, p := range e.pipelines {
		if err := p.Handle(ctx, ev); err != nil {
			e.logFailure(p.Category(), ev, err)
		}
	}
}

func (e *Engine) logFailure(category string, ev domain.InboundEvent, err error) {
	switch {
	case errors.Is(err, domain.ErrEndpointNotConfigured):
		e.logger.Warn("no endpoint for tenant",
			"category", category,
			"tenant", ev.Tenant,
			"err", err,
		)
	case errors.Is(err, domain.ErrCancelled):
		e.logger.Info("dispatch cancelled",
			"category", category,
			"event_id", ev.ID,
		)
	default:
		e.logger.Error("dispatch failed",
			"category", category,
			"tenant", ev.Tenant,
			"event_id", ev.ID,
			"err", err,
		)
	}
}
