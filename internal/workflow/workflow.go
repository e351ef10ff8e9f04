package workflow

import (
	"fmt"
	"time"

	"github.com/forest-guardian/water-guardian-cli/internal/eopatch"
	"github.com/rs/zerolog/log"
)

// Task is one pure stage of a pipeline. Execute must not modify its input.
type Task interface {
	Name() string
	Execute(p *eopatch.Patch) (*eopatch.Patch, error)
}

type LinearWorkflow struct {
	tasks []Task
}

func NewLinearWorkflow(tasks ...Task) *LinearWorkflow {
	return &LinearWorkflow{tasks: tasks}
}

// Snapshot is the output of a single stage.
type Snapshot struct {
	Task  string
	Patch *eopatch.Patch
}

func (w *LinearWorkflow) Execute(p *eopatch.Patch) (*eopatch.Patch, error) {
	out, _, err := w.run(p, false)
	return out, err
}

// ExecuteWithSnapshots runs the workflow and keeps every intermediate patch.
func (w *LinearWorkflow) ExecuteWithSnapshots(p *eopatch.Patch) (*eopatch.Patch, []Snapshot, error) {
	return w.run(p, true)
}

func (w *LinearWorkflow) run(p *eopatch.Patch, keep bool) (*eopatch.Patch, []Snapshot, error) {
	var snapshots []Snapshot
	current := p
	for i, task := range w.tasks {
		start := time.Now()
		next, err := task.Execute(current)
		if err != nil {
			return nil, snapshots, fmt.Errorf("task %d (%s) failed: %w", i+1, task.Name(), err)
		}
		log.Debug().
			Str("task", task.Name()).
			Int("timestamps", next.Len()).
			Dur("elapsed", time.Since(start)).
			Msg("workflow stage finished")
		if keep {
			snapshots = append(snapshots, Snapshot{Task: task.Name(), Patch: next})
		}
		current = next
	}
	return current, snapshots, nil
}
