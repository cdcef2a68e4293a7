package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"catalog/internal/graph"
	"catalog/internal/status"
	"catalog/internal/tracing"
)

// Strategy drives one product's run through the six stages. The two
// implementations are behaviorally interchangeable: for the same input
// and capability availability they produce structurally equal enriched
// output. Only event message texts may differ.
type Strategy interface {
	Name() string
	Run(ctx context.Context, st *State) error
}

// ChainedStrategy wires the stages as nodes of a fixed linear state
// graph and walks it. When a tracer is configured, each run is tagged
// with a run name and sku metadata; tracing never alters control flow.
type ChainedStrategy struct {
	runner *graph.Runner[State]
	tracer *tracing.Tracer
	logger *slog.Logger
}

func newChainedStrategy(sg *stages, tracer *tracing.Tracer, logger *slog.Logger) (*ChainedStrategy, error) {
	g := graph.New[State]()
	g.AddNode(string(status.StepIngest), sg.ingest)
	g.AddNode(string(status.StepExtract), sg.extract)
	g.AddNode(string(status.StepValidate), sg.validate)
	g.AddNode(string(status.StepCopywrite), sg.copywrite)
	g.AddNode(string(status.StepLocalize), sg.localize)
	g.AddNode(string(status.StepPublish), sg.publish)

	g.SetEntryPoint(string(status.StepIngest))
	g.AddEdge(string(status.StepIngest), string(status.StepExtract))
	g.AddEdge(string(status.StepExtract), string(status.StepValidate))
	g.AddEdge(string(status.StepValidate), string(status.StepCopywrite))
	g.AddEdge(string(status.StepCopywrite), string(status.StepLocalize))
	g.AddEdge(string(status.StepLocalize), string(status.StepPublish))
	g.AddEdge(string(status.StepPublish), graph.End)

	runner, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("building stage graph: %w", err)
	}
	return &ChainedStrategy{runner: runner, tracer: tracer, logger: logger}, nil
}

// Name identifies the strategy in logs and health output.
func (c *ChainedStrategy) Name() string { return "graph" }

// Run invokes the compiled chain against the state.
func (c *ChainedStrategy) Run(ctx context.Context, st *State) error {
	var run *tracing.Run
	if c.tracer.Enabled() {
		runName := fmt.Sprintf("enrich_product_%s_%d", st.Product.SKU, time.Now().Unix())
		run = c.tracer.StartRun(ctx, runName, map[string]string{"sku": st.Product.SKU})
	}

	err := c.runner.Invoke(ctx, st)

	if c.tracer.Enabled() {
		c.tracer.EndRun(ctx, run, err)
	}
	return err
}

// SequentialStrategy calls the same six stage functions in the same
// fixed order with no graph machinery. It is the transparent fallback
// used when graph orchestration is switched off, not a degraded mode.
type SequentialStrategy struct {
	stages *stages
}

func newSequentialStrategy(sg *stages) *SequentialStrategy {
	return &SequentialStrategy{stages: sg}
}

// Name identifies the strategy in logs and health output.
func (s *SequentialStrategy) Name() string { return "sequential" }

// Run executes the stages in order, stopping at the first failure.
func (s *SequentialStrategy) Run(ctx context.Context, st *State) error {
	steps := []func(context.Context, *State) error{
		s.stages.ingest,
		s.stages.extract,
		s.stages.validate,
		s.stages.copywrite,
		s.stages.localize,
		s.stages.publish,
	}
	for _, step := range steps {
		if err := step(ctx, st); err != nil {
			return err
		}
	}
	return nil
}
