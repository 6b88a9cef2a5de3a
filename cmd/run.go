package cmd

import (
	"fmt"
	"os"
	"slices"

	"github.com/abhisek/tutor/internal/conversation"
	"github.com/abhisek/tutor/internal/evaluation"
	"github.com/abhisek/tutor/internal/level"
	"github.com/abhisek/tutor/internal/llm"
	"github.com/abhisek/tutor/internal/logger"
	"github.com/abhisek/tutor/internal/progress"
	"github.com/abhisek/tutor/internal/questions"
	"github.com/abhisek/tutor/internal/store"
	"github.com/abhisek/tutor/internal/tutor"
	"github.com/spf13/cobra"
)

// buildTutor opens storage, builds the model-backed collaborators when a
// provider is configured and returns a ready Tutor. Without a provider
// the tutor runs on authored or fallback questions and offline answer
// matching. The returned func releases everything.
func buildTutor(cmd *cobra.Command, learner string, memory bool) (*tutor.Tutor, func(), error) {
	ctx := cmd.Context()
	log := logger.FromEnv()

	var (
		repo    store.ProgressRepo
		events  store.EventRepo
		closers []func()
	)
	if memory {
		repo = store.NewMemoryProgressRepo()
	} else {
		st, err := openStore(cmd)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		closers = append(closers, func() { _ = st.Close() })
		repo, events = st.ProgressRepo(), st.EventRepo()
	}

	cfg := tutor.ConfigFromEnv()
	if learner != "" {
		cfg.LearnerID = learner
	}

	deps := tutor.Deps{
		Supplier:  questions.NewSupplier(nil, questions.DefaultConfig(), log),
		Evaluator: evaluation.NewEvaluator(evaluation.MatchScorer{}, log),
		Progress:  progress.NewSynchronizer(repo, log),
		Logger:    log,
	}

	provider, llmCfg, err := llm.NewProviderFromEnv(ctx, events, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Using authored questions and offline answer checking.")
	} else {
		log.Info("llm provider ready", "provider", llmCfg.Provider, "model", llmCfg.ModelName())
		deps.Supplier = questions.NewSupplier(questions.NewLLMGenerator(provider), questions.DefaultConfig(), log)
		deps.Evaluator = evaluation.NewEvaluator(evaluation.NewLLMScorer(provider), log)
		deps.Replier = conversation.NewLLMReplier(provider)
		deps.Adjuster = level.NewLLMAdjuster(provider, log)
	}

	t, err := tutor.New(cfg, deps)
	if err != nil {
		for _, c := range slices.Backward(closers) {
			c()
		}
		return nil, nil, err
	}

	cleanup := func() {
		t.Close()
		for _, c := range slices.Backward(closers) {
			c()
		}
		log.Sync()
	}
	return t, cleanup, nil
}
