package application

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/spectree/pkg/domain/planning"
	"github.com/felixgeelhaar/spectree/pkg/domain/tracker"
)

// MaxTemplateEpicName bounds the epic name derived from a prompt.
const MaxTemplateEpicName = 100

// TemplateEpicName derives an epic name from the first line of prompt.
func TemplateEpicName(prompt string) string {
	line := strings.TrimSpace(prompt)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if len([]rune(line)) > MaxTemplateEpicName {
		return planning.Truncate(line, MaxTemplateEpicName) + "..."
	}
	return line
}

// planFromPreview shapes a template preview. Previews carry no identities, so
// synthetic dry-run identifiers are assigned.
func planFromPreview(p *tracker.TemplatePreview) *planning.GeneratedPlan {
	plan := &planning.GeneratedPlan{
		Epic:     planning.GeneratedEpic{ID: DryRunEpicID, Name: p.EpicName},
		Features: make([]planning.GeneratedFeature, 0, len(p.Features)),
		DryRun:   true,
	}

	for i, pf := range p.Features {
		n := i + 1
		gf := planning.GeneratedFeature{
			ID:             fmt.Sprintf("dry-run-feature-%d", n),
			Identifier:     fmt.Sprintf("DRY-%d", n),
			Title:          pf.Title,
			Description:    pf.Description,
			ExecutionOrder: pf.ExecutionOrder,
			CanParallelize: pf.CanParallelize,
			ParallelGroup:  pf.ParallelGroup,
			Complexity:     planning.ParseComplexity(pf.Complexity),
			Dependencies:   []string{},
			Tasks:          make([]planning.GeneratedTask, 0, len(pf.Tasks)),
		}
		for j, pt := range pf.Tasks {
			gf.Tasks = append(gf.Tasks, planning.GeneratedTask{
				ID:             fmt.Sprintf("dry-run-task-%d-%d", n, j+1),
				Identifier:     fmt.Sprintf("DRY-%d-%d", n, j+1),
				Title:          pt.Title,
				Description:    pt.Description,
				ExecutionOrder: pt.ExecutionOrder,
				CanParallelize: pt.CanParallelize,
				ParallelGroup:  pt.ParallelGroup,
				Complexity:     planning.ParseComplexity(pt.Complexity),
				Dependencies:   []string{},
			})
		}
		plan.Features = append(plan.Features, gf)
	}

	plan.Features = planning.SortByOrder(plan.Features, func(f planning.GeneratedFeature) int { return f.ExecutionOrder })
	plan.Finalize()
	return plan
}

// planFromTemplate shapes an instantiated template. Tasks are grouped under
// their feature by FeatureID; tasks naming an unknown feature are dropped.
func planFromTemplate(res *tracker.TemplateResult) *planning.GeneratedPlan {
	byFeature := make(map[string][]planning.GeneratedTask, len(res.Features))
	for _, t := range res.Tasks {
		byFeature[t.FeatureID] = append(byFeature[t.FeatureID], planning.GeneratedTask{
			ID:             t.ID,
			Identifier:     t.Identifier,
			Title:          t.Title,
			Description:    t.Description,
			ExecutionOrder: t.ExecutionOrder,
			CanParallelize: t.CanParallelize,
			ParallelGroup:  t.ParallelGroup,
			Complexity:     planning.ParseComplexity(t.Complexity),
			Dependencies:   nonNil(t.Dependencies),
		})
	}

	plan := &planning.GeneratedPlan{
		Epic: planning.GeneratedEpic{
			ID:          res.Epic.ID,
			Name:        res.Epic.Name,
			Description: res.Epic.Description,
		},
		Features: make([]planning.GeneratedFeature, 0, len(res.Features)),
	}
	for _, f := range res.Features {
		tasks := byFeature[f.ID]
		if tasks == nil {
			tasks = []planning.GeneratedTask{}
		}
		plan.Features = append(plan.Features, planning.GeneratedFeature{
			ID:             f.ID,
			Identifier:     f.Identifier,
			Title:          f.Title,
			Description:    f.Description,
			ExecutionOrder: f.ExecutionOrder,
			CanParallelize: f.CanParallelize,
			ParallelGroup:  f.ParallelGroup,
			Complexity:     planning.ParseComplexity(f.Complexity),
			Dependencies:   nonNil(f.Dependencies),
			Tasks:          planning.SortByOrder(tasks, func(t planning.GeneratedTask) int { return t.ExecutionOrder }),
		})
	}

	plan.Features = planning.SortByOrder(plan.Features, func(f planning.GeneratedFeature) int { return f.ExecutionOrder })
	plan.Finalize()
	return plan
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
