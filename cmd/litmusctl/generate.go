package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/litmus-ai/backend/internal/catalog"
	"github.com/litmus-ai/backend/internal/generator"
	"github.com/litmus-ai/backend/internal/models"
)

var generateCmd = &cobra.Command{
	Use:   "generate-questions",
	Short: "Draft new assessment questions for one domain",
	Long: `Asks the model for new multiple-choice questions in one competency area,
scores them, drops near-duplicates of the existing bank and writes the
survivors as questions.yaml entries for review.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("domain", "", "Competency area name, as in domains.yaml")
	generateCmd.Flags().Int("count", 5, "Number of questions to request")
	generateCmd.Flags().String("out", "-", "Output file, or - for stdout")
	generateCmd.Flags().Bool("review", false, "Run the model self-check and adversarial review")
	generateCmd.MarkFlagRequired("domain")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	domainName, _ := cmd.Flags().GetString("domain")
	count, _ := cmd.Flags().GetInt("count")
	outPath, _ := cmd.Flags().GetString("out")
	review, _ := cmd.Flags().GetBool("review")

	if count < 1 || count > 20 {
		return fmt.Errorf("count must be between 1 and 20, got %d", count)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Generator.Mock && cfg.Generator.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required unless MOCK_GENERATOR is set")
	}

	bundle, err := catalog.Load(cfg.Catalog.Dir)
	if err != nil {
		return err
	}
	domain, ok := findDomain(bundle.Domains, domainName)
	if !ok {
		return fmt.Errorf("unknown domain %q", domainName)
	}

	var existing []string
	for _, q := range bundle.Questions {
		if q.Domain == domain.Name {
			existing = append(existing, q.QuestionText)
		}
	}

	gen := generator.NewGenerator(cfg.Generator)
	var validator *generator.Validator
	if review && !cfg.Generator.Mock {
		validator = generator.NewValidator(generator.NewAPIClient(cfg.Generator.APIKey, cfg.Generator.Model))
	}

	report, err := generator.NewPipeline(gen, validator).Run(cmd.Context(), domain, count, existing)
	if err != nil {
		return err
	}

	nextID, nextPosition := generator.NextSlots(bundle.Questions, domain.Name)
	questions := generator.ToQuestions(report.Accepted, nextID, nextPosition)

	var w io.Writer = cmd.OutOrStdout()
	if outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}
	if err := generator.WriteYAML(w, questions); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d generated, %d kept, %d rejected, %d duplicates (%d/%d tokens)\n",
		domain.Name, report.Generated, len(questions), report.Rejected, report.Duplicates,
		report.PromptTokens, report.OutputTokens)
	return nil
}

func findDomain(domains []models.Domain, name string) (models.Domain, bool) {
	for _, d := range domains {
		if d.Name == name {
			return d, true
		}
	}
	return models.Domain{}, false
}
