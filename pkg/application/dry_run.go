package application

import (
	"fmt"

	"github.com/felixgeelhaar/spectree/pkg/domain/planning"
)

// DryRunEpicID is the synthetic epic ID of a dry-run plan.
const DryRunEpicID = "dry-run-epic"

// BuildDryRunPlan shapes a validated response into a GeneratedPlan with
// synthetic identifiers. It makes no tracker calls.
func BuildDryRunPlan(resp *planning.PlannerResponse) *planning.GeneratedPlan {
	plan := &planning.GeneratedPlan{
		Epic: planning.GeneratedEpic{
			ID:          DryRunEpicID,
			Name:        resp.EpicName,
			Description: planning.RenderEpicDescription(resp),
		},
		Features: make([]planning.GeneratedFeature, 0, len(resp.Features)),
		DryRun:   true,
	}

	features := planning.NewIdentifierMap()
	for i, pf := range resp.Features {
		n := i + 1
		gf := planning.GeneratedFeature{
			ID:             fmt.Sprintf("dry-run-feature-%d", n),
			Identifier:     fmt.Sprintf("DRY-%d", n),
			Title:          pf.Title,
			Description:    planning.RenderFeatureDescription(pf, nil),
			ExecutionOrder: pf.ExecutionOrder,
			CanParallelize: pf.CanParallelize,
			ParallelGroup:  pf.ParallelGroup,
			Complexity:     pf.Complexity,
			Dependencies:   features.Resolve(pf.Dependencies),
			Tasks:          make([]planning.GeneratedTask, 0, len(pf.Tasks)),
		}

		tasks := planning.NewIdentifierMap()
		for j, pt := range pf.Tasks {
			m := j + 1
			gt := planning.GeneratedTask{
				ID:             fmt.Sprintf("dry-run-task-%d-%d", n, m),
				Identifier:     fmt.Sprintf("DRY-%d-%d", n, m),
				Title:          pt.Title,
				Description:    planning.RenderTaskDescription(pt),
				ExecutionOrder: pt.ExecutionOrder,
				CanParallelize: pt.CanParallelize,
				ParallelGroup:  pt.ParallelGroup,
				Complexity:     pt.Complexity,
				Dependencies:   tasks.Resolve(pt.Dependencies),
			}
			tasks.Record(pt.ExecutionOrder, gt.ID)
			gf.Tasks = append(gf.Tasks, gt)
		}

		features.Record(pf.ExecutionOrder, gf.ID)
		plan.Features = append(plan.Features, gf)
	}

	plan.Finalize()
	return plan
}
