package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/abhisek/tutor/internal/curriculum"
	"github.com/abhisek/tutor/internal/evaluation"
	"github.com/abhisek/tutor/internal/llm"
	"github.com/abhisek/tutor/internal/logger"
	"github.com/abhisek/tutor/internal/questions"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview generated questions for a module (no database)",
	Long: `Generate a question set for a module and answer it interactively.

This is a stateless developer tool: no database, no progress tracking and
no request log. Useful for checking question quality and answer grading.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringP("module", "m", "", "Built-in module ID or path to a module YAML file (required)")
	previewCmd.Flags().StringP("kind", "k", string(curriculum.KindPractice), "Session kind: practice, quiz, review or feedback")
	previewCmd.Flags().String("difficulty", string(curriculum.DifficultyBeginner), "Difficulty: beginner, intermediate or advanced")
	previewCmd.Flags().Int("count", 5, "Number of questions to generate")
	_ = previewCmd.MarkFlagRequired("module")
}

func runPreview(cmd *cobra.Command, args []string) error {
	ref, _ := cmd.Flags().GetString("module")
	kindVal, _ := cmd.Flags().GetString("kind")
	difficulty, _ := cmd.Flags().GetString("difficulty")
	count, _ := cmd.Flags().GetInt("count")

	mod, err := curriculum.Lookup(ref)
	if err != nil {
		return err
	}
	kind, err := curriculum.ParseKind(kindVal)
	if err != nil {
		return err
	}
	tier := curriculum.Difficulty(strings.ToLower(difficulty))
	switch tier {
	case curriculum.DifficultyBeginner, curriculum.DifficultyIntermediate, curriculum.DifficultyAdvanced:
	default:
		return fmt.Errorf("invalid difficulty %q: must be beginner, intermediate or advanced", difficulty)
	}

	// No EventRepo: request logging is skipped.
	ctx := cmd.Context()
	log := logger.FromEnv()
	defer log.Sync()
	provider, _, err := llm.NewProviderFromEnv(ctx, nil, log)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}

	// Zero CacheTTL: every preview generates a fresh set.
	supplier := questions.NewSupplier(questions.NewLLMGenerator(provider), questions.Config{DefaultCount: count}, log)
	evaluator := evaluation.NewEvaluator(evaluation.NewLLMScorer(provider), log)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Module: %s (%s, %s)\n", mod.Title, kind.DisplayName(), tier)
	fmt.Fprintf(out, "Generating %d questions...\n\n", count)

	qs, source := supplier.SupplyWithSource(ctx, mod, kind, count, tier)
	fmt.Fprintf(out, "Got %d questions (%s)\n\n", len(qs), source)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	var correct int
	for i, q := range qs {
		fmt.Fprintf(out, "── Question %d/%d ──\n", i+1, len(qs))
		fmt.Fprintln(out, q.Prompt)
		if q.Hint != "" {
			fmt.Fprintf(out, "Hint: %s\n", q.Hint)
		}

		fmt.Fprint(out, "\nYour answer: ")
		if !scanner.Scan() {
			fmt.Fprintln(out, "\n(input closed)")
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			fmt.Fprintln(out, "(skipped)")
			fmt.Fprintln(out)
			continue
		}

		ev := evaluator.Evaluate(ctx, q, answer)
		if ev.IsCorrect {
			correct++
			fmt.Fprintf(out, "\033[32m✓ Correct!\033[0m (%d/100) %s\n", ev.Score, ev.Feedback)
		} else {
			fmt.Fprintf(out, "\033[31m✗ Not quite.\033[0m (%d/100) %s\nExpected: %s\n", ev.Score, ev.Feedback, q.ExpectedAnswer)
		}
		if ev.Explanation != "" {
			fmt.Fprintf(out, "Explanation: %s\n", ev.Explanation)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "── Summary: %d/%d correct ──\n", correct, len(qs))
	return nil
}
