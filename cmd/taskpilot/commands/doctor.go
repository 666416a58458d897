package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcus/taskpilot/internal/db"
	"github.com/marcus/taskpilot/internal/embedding"
)

type checkStatus string

const (
	statusOK   checkStatus = "OK"
	statusWarn checkStatus = "WARN"
	statusFail checkStatus = "FAIL"
)

type checkResult struct {
	name   string
	status checkStatus
	detail string
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check taskpilot configuration and environment",
	Long: `Run diagnostics to detect configuration and environment issues.

Checks config, database health, oracle credentials, the embedding backend,
and calendar setup.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	results := make([]checkResult, 0)
	hasFail := false

	add := func(name string, status checkStatus, detail string) {
		if status == statusFail {
			hasFail = true
		}
		results = append(results, checkResult{name: name, status: status, detail: detail})
	}

	add("config", statusOK, "loaded")

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		add("db", statusFail, err.Error())
	} else {
		add("db", statusOK, database.Path())
		_ = database.Close()
	}

	switch {
	case !cfg.Oracle.Enabled:
		add("oracle", statusWarn, "disabled; chat uses rule parsing only")
	case cfg.Oracle.APIKey == "":
		add("oracle", statusWarn, "GEMINI_API_KEY not set; chat uses rule parsing only")
	default:
		add("oracle", statusOK, cfg.Oracle.Model)
	}

	switch cfg.Embedding.Provider {
	case "genai", "":
		if cfg.Embedding.GenAIAPIKey == "" {
			add("embedding", statusWarn, "GEMINI_API_KEY not set; dedup disabled")
		} else {
			add("embedding", statusOK, "genai:"+cfg.Embedding.GenAIModel)
		}
	case "ollama":
		if _, err := embedding.NewOllamaEngine(cfg.Embedding.OllamaEndpoint, cfg.Embedding.OllamaModel); err != nil {
			add("embedding", statusFail, err.Error())
		} else {
			add("embedding", statusOK, "ollama:"+cfg.Embedding.OllamaModel)
		}
	}

	switch {
	case cfg.Calendar.CredentialsFile == "":
		add("calendar", statusWarn, "not configured")
	default:
		if _, err := os.Stat(cfg.Calendar.CredentialsFile); err != nil {
			add("calendar", statusFail, "credentials file missing: "+cfg.Calendar.CredentialsFile)
		} else if _, err := os.Stat(cfg.Calendar.TokenFile); err != nil {
			add("calendar", statusWarn, "no token yet; complete the OAuth flow")
		} else {
			add("calendar", statusOK, "ready")
		}
	}

	if cfg.Search.APIKey == "" {
		add("search", statusWarn, "SERPER_API_KEY not set; web search disabled")
	} else {
		add("search", statusOK, "ready")
	}

	printDoctorResults(results)
	if hasFail {
		return fmt.Errorf("doctor found problems")
	}
	return nil
}

func printDoctorResults(results []checkResult) {
	for _, r := range results {
		fmt.Printf("  [%-4s] %-10s %s\n", r.status, r.name, r.detail)
	}
}
