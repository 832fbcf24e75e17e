package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/felixgeelhaar/spectree/pkg/application"
	"github.com/felixgeelhaar/spectree/pkg/domain/planning"
	"github.com/felixgeelhaar/spectree/pkg/storage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	OutputText     = "text"
	OutputJSON     = "json"
	OutputYAML     = "yaml"
	OutputMarkdown = "markdown"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate and inspect plans",
}

var (
	planFile     string
	planTeam     string
	planTeamID   string
	planTemplate string
	planOutput   string
	planDryRun   bool
	planNoSave   bool
)

var planGenerateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate a plan for a feature request",
	Long: `Generate asks the configured AI provider for a plan and creates it in the tracker.

The request is read from the argument, from --file, or from stdin with --file -.
With --template the tracker instantiates a stored template and no AI call is made.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt, err := readPrompt(cmd.InOrStdin(), args, planFile)
		if err != nil {
			return err
		}
		if err := checkOutput(planOutput); err != nil {
			return err
		}

		services, cleanup, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		plan, err := services.Generator.GeneratePlan(cmd.Context(), prompt, application.GenerateOptions{
			Team:     planTeam,
			TeamID:   planTeamID,
			DryRun:   planDryRun,
			Template: planTemplate,
		})
		if err != nil {
			return MapError(err)
		}

		if !planNoSave {
			if err := services.Workspace.SavePlan(plan); err != nil {
				services.Logger.Warn("failed to save plan", "error", err)
			}
		}
		return writePlan(cmd.OutOrStdout(), plan, planOutput)
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the most recently generated plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkOutput(planOutput); err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		plan, err := storage.NewFilesystemRepository(cfg.Workspace.Root).LoadPlan()
		if err != nil {
			return MapError(err)
		}
		return writePlan(cmd.OutOrStdout(), plan, planOutput)
	},
}

func readPrompt(stdin io.Reader, args []string, file string) (string, error) {
	switch {
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read prompt from stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read prompt file: %w", err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	}
	return "", nil
}

func checkOutput(format string) error {
	switch format {
	case OutputText, OutputJSON, OutputYAML, OutputMarkdown:
		return nil
	}
	return &CLIError{
		Message:  fmt.Sprintf("unknown output format %q", format),
		Hint:     "Use one of text, json, yaml, markdown",
		ExitCode: ExitUsage,
	}
}

func writePlan(w io.Writer, plan *planning.GeneratedPlan, format string) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plan); err != nil {
			return err
		}
		return enc.Close()
	case OutputMarkdown:
		_, err := io.WriteString(w, renderPlanMarkdown(plan))
		return err
	default:
		_, err := io.WriteString(w, renderPlanText(plan))
		return err
	}
}

// featuresInOrder returns the plan's features following its execution order.
func featuresInOrder(plan *planning.GeneratedPlan) []planning.GeneratedFeature {
	byID := make(map[string]planning.GeneratedFeature, len(plan.Features))
	for _, f := range plan.Features {
		byID[f.ID] = f
	}
	ordered := make([]planning.GeneratedFeature, 0, len(plan.Features))
	for _, id := range plan.ExecutionOrder {
		if f, ok := byID[id]; ok {
			ordered = append(ordered, f)
			delete(byID, id)
		}
	}
	// Plans saved before Finalize carry no execution order.
	for _, f := range plan.Features {
		if _, ok := byID[f.ID]; ok {
			ordered = append(ordered, f)
		}
	}
	return ordered
}

func renderPlanText(plan *planning.GeneratedPlan) string {
	var b strings.Builder

	header := titleStyle.Render(plan.Epic.Name)
	if plan.DryRun {
		header += " " + badgeStyle.Render("DRY RUN")
	}
	b.WriteString(header + "\n")
	fmt.Fprintf(&b, "%s\n", dimStyle.Render("epic "+plan.Epic.ID))
	fmt.Fprintf(&b, "%d features, %d tasks", plan.TotalFeatures, plan.TotalTasks)
	if len(plan.ParallelGroups) > 0 {
		fmt.Fprintf(&b, ", parallel groups: %s", strings.Join(plan.ParallelGroups, ", "))
	}
	b.WriteString("\n\n")

	names := identifiersByID(plan)
	for i, f := range featuresInOrder(plan) {
		fmt.Fprintf(&b, "%d. %s %s %s\n", i+1, f.Identifier, f.Title, dimStyle.Render(scheduleNote(f.ExecutionOrder, string(f.Complexity), f.ParallelGroup, names.of(f.Dependencies))))
		tasks := planning.SortByOrder(f.Tasks, func(t planning.GeneratedTask) int { return t.ExecutionOrder })
		for _, t := range tasks {
			fmt.Fprintf(&b, "   - %s %s %s\n", t.Identifier, t.Title, dimStyle.Render(scheduleNote(t.ExecutionOrder, string(t.Complexity), t.ParallelGroup, names.of(t.Dependencies))))
		}
	}

	if len(plan.Warnings) > 0 {
		b.WriteString("\n" + warnStyle.Render(fmt.Sprintf("%d annotation warnings:", len(plan.Warnings))) + "\n")
		for _, w := range plan.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	} else if !plan.DryRun {
		b.WriteString("\n" + okStyle.Render("Plan created.") + "\n")
	}
	return b.String()
}

// idNames maps tracker IDs to human-readable identifiers.
type idNames map[string]string

func identifiersByID(plan *planning.GeneratedPlan) idNames {
	names := make(idNames)
	for _, f := range plan.Features {
		names[f.ID] = f.Identifier
		for _, t := range f.Tasks {
			names[t.ID] = t.Identifier
		}
	}
	return names
}

// of returns the identifiers for ids, keeping unknown IDs as they are.
func (n idNames) of(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if name, ok := n[id]; ok && name != "" {
			out[i] = name
		} else {
			out[i] = id
		}
	}
	return out
}

func scheduleNote(order int, complexity, group string, deps []string) string {
	parts := []string{fmt.Sprintf("order %d", order)}
	if complexity != "" {
		parts = append(parts, complexity)
	}
	if group != "" {
		parts = append(parts, "group "+group)
	}
	if len(deps) > 0 {
		parts = append(parts, "after "+strings.Join(deps, ", "))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func renderPlanMarkdown(plan *planning.GeneratedPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", plan.Epic.Name)
	if desc := strings.TrimSpace(plan.Epic.Description); desc != "" {
		b.WriteString(desc + "\n\n")
	}

	for _, f := range featuresInOrder(plan) {
		fmt.Fprintf(&b, "## %s: %s\n\n", f.Identifier, f.Title)
		if desc := strings.TrimSpace(f.Description); desc != "" {
			b.WriteString(desc + "\n\n")
		}
		for _, t := range planning.SortByOrder(f.Tasks, func(t planning.GeneratedTask) int { return t.ExecutionOrder }) {
			fmt.Fprintf(&b, "- [ ] **%s** %s\n", t.Identifier, t.Title)
		}
		if len(f.Tasks) > 0 {
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func init() {
	planGenerateCmd.Flags().StringVarP(&planFile, "file", "f", "", "Read the request from a file (- for stdin)")
	planGenerateCmd.Flags().StringVar(&planTeam, "team", "", "Team name recorded with the plan")
	planGenerateCmd.Flags().StringVar(&planTeamID, "team-id", "", "Tracker team that will own the epic (required unless --dry-run)")
	planGenerateCmd.Flags().BoolVar(&planDryRun, "dry-run", false, "Compute the plan without creating anything in the tracker")
	planGenerateCmd.Flags().StringVar(&planTemplate, "template", "", "Instantiate a tracker template instead of asking the AI")
	planGenerateCmd.Flags().BoolVar(&planNoSave, "no-save", false, "Do not record the plan in the workspace")

	for _, c := range []*cobra.Command{planGenerateCmd, planShowCmd} {
		c.Flags().StringVarP(&planOutput, "output", "o", OutputText, "Output format (text, json, yaml, markdown)")
	}

	planCmd.AddCommand(planGenerateCmd)
	planCmd.AddCommand(planShowCmd)
	RootCmd.AddCommand(planCmd)
}
