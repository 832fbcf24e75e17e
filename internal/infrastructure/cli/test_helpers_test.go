package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/spectree/internal/infrastructure/config"
	infraai "github.com/felixgeelhaar/spectree/pkg/ai"
)

// writeTestConfig writes a config using the mock provider and an in-memory
// tracker, with the workspace in a temp dir.
func writeTestConfig(t *testing.T) (path, root string) {
	t.Helper()
	t.Setenv(infraai.EnvProvider, "")
	t.Setenv(infraai.EnvModel, "")

	root = t.TempDir()
	cfg := config.Default()
	cfg.AI.Provider = "mock"
	cfg.AI.Model = "test"
	cfg.Logging.Level = "error"
	cfg.Workspace.Root = root

	path = filepath.Join(root, "spectree.yaml")
	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return path, root
}

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	configPath, logLevel = "", ""
	planFile, planTeam, planTeamID, planTemplate, planOutput = "", "", "", "", OutputText
	planDryRun, planNoSave = false, false
	configForce = false
	auditRunID = ""

	var out, errOut bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&errOut)
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	})

	err := RootCmd.Execute()
	return out.String(), err
}
