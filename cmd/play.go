package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/abhisek/tutor/internal/curriculum"
	"github.com/abhisek/tutor/internal/session"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a learning session",
	Long: `Start an interactive session against a module.

Type an answer to the current question and press enter. Lines starting
with "?" are sent to the tutor as questions of your own. Commands:

  /next   show the next question (skips the current one)
  /done   end the session
  /retry  try again after an error
  /quit   leave without ending the session`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringP("module", "m", "", "Built-in module ID or path to a module YAML file (required)")
	playCmd.Flags().StringP("kind", "k", string(curriculum.KindQuiz), "Session kind: practice, quiz, review or feedback")
	playCmd.Flags().String("learner", "", "Learner ID (overrides TUTOR_LEARNER)")
	playCmd.Flags().Bool("memory", false, "Keep progress in memory only")
	_ = playCmd.MarkFlagRequired("module")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ref, _ := cmd.Flags().GetString("module")
	kindVal, _ := cmd.Flags().GetString("kind")
	learner, _ := cmd.Flags().GetString("learner")
	memory, _ := cmd.Flags().GetBool("memory")

	mod, err := curriculum.Lookup(ref)
	if err != nil {
		return err
	}
	kind, err := curriculum.ParseKind(kindVal)
	if err != nil {
		return err
	}

	t, cleanup, err := buildTutor(cmd, learner, memory)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	out := newTranscriptWriter(cmd.OutOrStdout())

	// Paced questions arrive from a timer, so render on every change.
	stop := make(chan struct{})
	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		for {
			select {
			case <-t.Changes():
				out.render(t.State())
			case <-stop:
				return
			}
		}
	}()
	defer func() {
		close(stop)
		<-rendered
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n\n", kind.DisplayName(), mod.Title)
	if err := t.StartSession(ctx, kind, mod); err != nil && t.State().Session == nil {
		return err
	}
	out.render(t.State())

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		var err error
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/next":
			err = t.AdvanceQuestion(ctx)
		case line == "/done":
			err = t.CompleteSession(ctx)
		case line == "/retry":
			err = t.Retry(ctx)
		case strings.HasPrefix(line, "?"):
			err = t.SendMessage(ctx, strings.TrimSpace(line[1:]), false)
		default:
			err = t.SendMessage(ctx, line, true)
		}
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		}

		st := t.State()
		out.render(st)
		if st.Phase == session.PhaseCompleted {
			return nil
		}
	}
	return scanner.Err()
}

// transcriptWriter prints tutor messages that have not been printed yet.
type transcriptWriter struct {
	mu        sync.Mutex
	w         io.Writer
	sessionID string
	printed   int
	lastErr   error
}

func newTranscriptWriter(w io.Writer) *transcriptWriter {
	return &transcriptWriter{w: w}
}

func (tw *transcriptWriter) render(st session.State) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if st.Session == nil {
		return
	}
	if st.Session.ID != tw.sessionID {
		tw.sessionID, tw.printed, tw.lastErr = st.Session.ID, 0, nil
	}

	for _, m := range st.Session.Transcript[tw.printed:] {
		if m.Sender != session.SenderTutor {
			continue
		}
		if m.IsQuestion {
			fmt.Fprintln(tw.w)
		}
		fmt.Fprintln(tw.w, m.Content)
	}
	tw.printed = len(st.Session.Transcript)

	if st.Phase == session.PhaseError && st.Err != nil && st.Err != tw.lastErr {
		fmt.Fprintf(tw.w, "Something went wrong: %v\nType /retry to try again.\n", st.Err)
	}
	tw.lastErr = st.Err
}
