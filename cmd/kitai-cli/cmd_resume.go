package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"kitai/content"
	"kitai/llm"
	"kitai/models"
	"kitai/repository"
	"kitai/services"
)

var resumeFlags struct {
	org      string
	provider string
	model    string
	from     string
	to       string
	posts    string
	noSave   bool
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Generate the important-news resume for an organization",
	Example: `  kitai-cli resume --org 7f3c --provider openai --model gpt-4o --from 2025-01-01 --to 2025-01-02
  kitai-cli resume --org 7f3c --provider google --model gemini-2.0-flash --posts posts.json`,
	RunE: runResume,
}

func init() {
	f := resumeCmd.Flags()
	f.StringVar(&resumeFlags.org, "org", "", "organization id")
	f.StringVar(&resumeFlags.provider, "provider", llm.ProviderOpenAI, "openai, anthropic or google")
	f.StringVar(&resumeFlags.model, "model", "", "model used for the final text")
	f.StringVar(&resumeFlags.from, "from", "", "range start (RFC3339 or YYYY-MM-DD), default 24h before --to")
	f.StringVar(&resumeFlags.to, "to", "", "range end (RFC3339 or YYYY-MM-DD), default now")
	f.StringVar(&resumeFlags.posts, "posts", "", "JSON file with the documents to use instead of the content source")
	f.BoolVar(&resumeFlags.noSave, "no-save", false, "do not store the generated resume")
	_ = resumeCmd.MarkFlagRequired("org")
	_ = resumeCmd.MarkFlagRequired("model")
}

func runResume(cmd *cobra.Command, _ []string) error {
	from, to, err := parseWindow(resumeFlags.from, resumeFlags.to, 24*time.Hour)
	if err != nil {
		return err
	}

	var posts []models.SourceDocument
	if resumeFlags.posts != "" {
		data, err := os.ReadFile(resumeFlags.posts)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &posts); err != nil {
			return fmt.Errorf("parsing %s: %w", resumeFlags.posts, err)
		}
	}

	cfg, err := openDatabase()
	if err != nil {
		return err
	}

	store := repository.Store{}
	deps := services.Deps{
		Sessions:  store,
		Configs:   store,
		Documents: services.NewOrganizationDocuments(store, content.OptionsFromConfig(cfg)),
		NewClient: llm.NewFactory(llm.OptionsFromConfig(cfg)),
		Sink:      store,
	}
	if !resumeFlags.noSave {
		deps.Resumes = store
	}

	result, err := services.NewResumeService(deps, services.ResumeOptionsFromConfig(cfg)).
		GenerateForOrganization(cmd.Context(), resumeFlags.org, models.ResumeRequest{
			Provider: resumeFlags.provider,
			Model:    resumeFlags.model,
			From:     from,
			To:       to,
			Posts:    posts,
		})
	if jsonOutput && result != nil {
		if perr := printJSON(cmd, result); perr != nil {
			return perr
		}
		return err
	}
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%s", result.Error)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, result.Resume)
	fmt.Fprintln(out)
	for i, f := range result.Selected {
		fmt.Fprintf(out, "%d. %s\n   %s\n", i+1, f.Title, f.Link)
	}
	if len(result.Logs) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "request %s, %d log events\n", result.Logs[0].RequestID, len(result.Logs))
	}
	return nil
}
