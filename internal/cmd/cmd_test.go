package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/h2non/gock"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/teehrview/internal/logging"
	"github.com/Iron-Ham/teehrview/internal/teehr"
)

const testAPI = "http://teehr.test"

// executeCommand runs the root command with args and returns captured
// stdout and stderr. Flags are reset first because cobra keeps their values
// between runs.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// setupEnv isolates config and logs in a temp dir.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("TEEHRVIEW_API_BASE_URL", testAPI)
	t.Setenv("TEEHRVIEW_API_MAX_RETRIES", "0")
	t.Setenv("TEEHRVIEW_LOGGING_DIR", filepath.Join(dir, "logs"))
	return dir
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "teehrview" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "teehrview")
	}

	cmdMap := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		cmdMap[c.Name()] = true
	}
	for _, expected := range []string{"start", "datasets", "config", "logs"} {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}
}

func TestDatasetsCommand(t *testing.T) {
	setupEnv(t)
	defer gock.Off()

	gock.New(testAPI).
		Get("/datasets").
		Reply(200).
		JSON([]map[string]any{
			{"id": 1, "name": "e0_2_location_example", "description": "two gauges"},
			{"id": 2, "name": "e1_camels_daily_streamflow"},
		})

	out, _, err := executeCommand(t, "datasets")
	if err != nil {
		t.Fatalf("datasets failed: %v", err)
	}
	for _, want := range []string{"ID", "e0_2_location_example", "two gauges", "e1_camels_daily_streamflow"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !gock.IsDone() {
		t.Error("expected the datasets endpoint to be called")
	}
}

func TestDatasetsCommand_JSON(t *testing.T) {
	setupEnv(t)
	defer gock.Off()

	gock.New(testAPI).
		Get("/datasets").
		Reply(200).
		JSON([]map[string]any{{"id": 7, "name": "seven"}})

	out, _, err := executeCommand(t, "datasets", "--json")
	if err != nil {
		t.Fatalf("datasets --json failed: %v", err)
	}
	var got []teehr.Dataset
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(got) != 1 || got[0].ID != 7 || got[0].Name != "seven" {
		t.Errorf("datasets = %+v", got)
	}
}

func TestDatasetsCommand_Verbose(t *testing.T) {
	setupEnv(t)
	defer gock.Off()

	gock.New(testAPI).Get("/datasets").Reply(200).JSON([]any{})

	out, errOut, err := executeCommand(t, "datasets", "-v")
	if err != nil {
		t.Fatalf("datasets -v failed: %v", err)
	}
	if !strings.Contains(out, "No datasets available.") {
		t.Errorf("output = %q", out)
	}
	for _, want := range []string{"datasets: idle -> pending", "datasets: pending -> succeeded"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("stderr missing %q:\n%s", want, errOut)
		}
	}
}

func TestDatasetsCommand_Failure(t *testing.T) {
	setupEnv(t)
	defer gock.Off()

	gock.New(testAPI).Get("/datasets").Reply(500).BodyString("boom")

	_, _, err := executeCommand(t, "datasets")
	if err == nil {
		t.Fatal("expected an error when the API fails")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error = %v, want the HTTP status", err)
	}
}

func TestDatasetsCommand_InvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("TEEHRVIEW_API_BASE_URL", "not a url")

	_, _, err := executeCommand(t, "datasets")
	if err == nil || !strings.Contains(err.Error(), "api.base_url") {
		t.Errorf("error = %v, want a config validation error", err)
	}
}

func TestStartCommand_RequiresTerminal(t *testing.T) {
	setupEnv(t)

	_, _, err := executeCommand(t, "start")
	if err == nil || !strings.Contains(err.Error(), "terminal") {
		t.Errorf("error = %v, want a terminal error", err)
	}
}

func TestConfigCommands(t *testing.T) {
	dir := setupEnv(t)
	configFile := filepath.Join(dir, "teehrview", "config.yaml")

	out, _, err := executeCommand(t, "config", "path")
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if !strings.Contains(out, configFile) {
		t.Errorf("config path output missing %s:\n%s", configFile, out)
	}

	if _, _, err := executeCommand(t, "config", "init"); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := os.Stat(configFile); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if _, _, err := executeCommand(t, "config", "init"); err == nil {
		t.Error("second config init should fail")
	}

	out, _, err = executeCommand(t, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"base_url: " + testAPI, "max_rows: 50"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestConfigSet_Validation(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown key", []string{"config", "set", "nope", "1"}, "unknown configuration key"},
		{"bad int", []string{"config", "set", "results.max_rows", "many"}, "expected integer"},
		{"bad bool", []string{"config", "set", "logging.enabled", "maybe"}, "expected true or false"},
		{"out of range", []string{"config", "set", "results.max_rows", "0"}, "results.max_rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestConfigSet_RejectedValueIsNotKept(t *testing.T) {
	dir := setupEnv(t)

	_, _, err := executeCommand(t, "config", "set", "results.max_rows", "0")
	if err == nil {
		t.Fatal("config set accepted results.max_rows = 0")
	}
	if got := viper.GetInt("results.max_rows"); got != 50 {
		t.Errorf("results.max_rows = %d after a rejected set, want 50", got)
	}

	logger, err := logging.NewLogger(filepath.Join(dir, "logs"), logging.LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.WithSession("abcdef123456").Info("workflow mounted")
	_ = logger.Close()

	out, _, err := executeCommand(t, "logs")
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if !strings.Contains(out, "workflow mounted") {
		t.Errorf("logs did not read the configured dir:\n%s", out)
	}
}

func TestLogsCommand_InvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("TEEHRVIEW_API_TIMEOUT_SECONDS", "0")

	_, _, err := executeCommand(t, "logs")
	if err == nil || !strings.Contains(err.Error(), "api.timeout_seconds") {
		t.Errorf("error = %v, want a config validation error", err)
	}
}

func TestLogsCommand(t *testing.T) {
	dir := setupEnv(t)

	logger, err := logging.NewLogger(filepath.Join(dir, "logs"), logging.LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.WithSession("abcdef123456").WithComponent("workflow").Info("workflow mounted")
	logger.WithSession("abcdef123456").WithComponent("workflow").Warn("dataset bootstrap failed")
	logger.WithSession("ffff0000").Debug("other run")
	_ = logger.Close()

	out, _, err := executeCommand(t, "logs", "--level", "warn")
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if !strings.Contains(out, "dataset bootstrap failed") || strings.Contains(out, "workflow mounted") {
		t.Errorf("level filter output:\n%s", out)
	}

	out, _, err = executeCommand(t, "logs", "-s", "abcdef", "--json")
	if err != nil {
		t.Fatalf("logs --json failed: %v", err)
	}
	var entries []logging.LogEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}

	out, _, err = executeCommand(t, "logs", "-n", "1")
	if err != nil {
		t.Fatalf("logs -n failed: %v", err)
	}
	if !strings.Contains(out, "other run") || strings.Count(out, "\n") != 1 {
		t.Errorf("tail output:\n%s", out)
	}
}
