package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ersonp/newscheck/internal/application/handlers"
	"github.com/ersonp/newscheck/internal/domain/entities"
	"github.com/ersonp/newscheck/internal/domain/services"
	"github.com/ersonp/newscheck/internal/infrastructure/inbox"
)

type watchFlags struct {
	dir string
}

func newWatchCmd() *cobra.Command {
	var flags watchFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Interactive analysis session",
		Long: `Enter news text interactively and get a verdict for each submission.

With --dir, .txt files written to that directory are analyzed as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.dir, "dir", "d", "", "Also analyze .txt files dropped into this directory")

	return cmd
}

func runWatch(cmd *cobra.Command, flags watchFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		session := newWatchSession(d.Analysis, d.AnalyzeHandler, cmd.OutOrStdout())
		unsubscribe := d.Analysis.Subscribe(session.onChange)
		defer unsubscribe()

		if flags.dir != "" {
			w, err := inbox.New(flags.dir, inbox.WithLogger(d.Logger))
			if err != nil {
				return err
			}

			watchCtx, cancel := context.WithCancel(ctx)
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := w.Run(watchCtx, session.submitFile); err != nil {
					d.Logger.Warn("inbox watcher stopped", zap.Error(err))
				}
			}()
			defer func() {
				cancel()
				wg.Wait()
			}()

			session.printf("Watching %s for .txt files.\n", w.Dir())
		}

		return session.run(ctx, cmd.InOrStdin())
	})
}

// watchSession is the interactive loop. Submissions from the prompt and the
// inbox are serialized so only one analysis runs at a time, and reset and
// clear wait for a running analysis to resolve.
type watchSession struct {
	analysis *services.AnalysisService
	handler  *handlers.AnalysisHandler
	out      *syncWriter
	submitMu sync.Mutex
}

func newWatchSession(analysis *services.AnalysisService, handler *handlers.AnalysisHandler, out io.Writer) *watchSession {
	return &watchSession{
		analysis: analysis,
		handler:  handler,
		out:      &syncWriter{w: out},
	}
}

func (s *watchSession) run(ctx context.Context, in io.Reader) error {
	s.printf("newscheck interactive mode. Enter text, then a blank line to analyze.\n")
	s.printf("Commands: 'history', 'reset', 'clear', 'help', 'quit'\n\n")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), handlers.MaxFileBytes)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errCh <- scanner.Err()
	}()

	var buf strings.Builder
	s.prompt()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if buf.Len() > 0 {
					s.submit(ctx, buf.String())
				}
				select {
				case err := <-errCh:
					return err
				default:
					return nil
				}
			}
			if s.handleLine(ctx, line, &buf) {
				return nil
			}
			s.prompt()
		}
	}
}

// handleLine processes one input line. It returns true when the session should end.
func (s *watchSession) handleLine(ctx context.Context, line string, buf *strings.Builder) bool {
	if buf.Len() == 0 {
		if handled, exit := s.handleCommand(ctx, strings.ToLower(strings.TrimSpace(line))); handled {
			return exit
		}
	}

	if strings.TrimSpace(line) == "" {
		if buf.Len() > 0 {
			text := buf.String()
			buf.Reset()
			s.submit(ctx, text)
		}
		return false
	}

	if buf.Len() > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString(line)
	return false
}

// handleCommand processes user commands. Returns (handled, shouldExit).
func (s *watchSession) handleCommand(ctx context.Context, input string) (bool, bool) {
	switch input {
	case "quit", "exit":
		s.printf("Goodbye!\n")
		return true, true
	case "reset":
		s.submitMu.Lock()
		s.analysis.Reset()
		s.submitMu.Unlock()
		s.printf("Result cleared.\n")
		return true, false
	case "history":
		renderHistory(s.out, "Session history", s.analysis.History())
		return true, false
	case "clear":
		s.submitMu.Lock()
		s.analysis.ClearHistory(ctx)
		s.submitMu.Unlock()
		s.printf("History cleared.\n")
		return true, false
	case "help":
		s.showHelp()
		return true, false
	default:
		return false, false
	}
}

func (s *watchSession) showHelp() {
	s.printf("Commands:\n")
	s.printf("  history - Show this session's analyses\n")
	s.printf("  reset   - Clear the current result\n")
	s.printf("  clear   - Clear the session history\n")
	s.printf("  quit    - Exit interactive mode\n")
	s.printf("  help    - Show this help\n\n")
	s.printf("Enter text and press Enter on a blank line to analyze it.\n")
}

func (s *watchSession) submit(ctx context.Context, text string) {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	outcome, err := s.handler.Handle(ctx, text)
	if err != nil {
		s.printf("Error: %v\n", err)
		return
	}
	renderResult(s.out, outcome.Result, outcome.Entry.Signals)
}

func (s *watchSession) submitFile(ctx context.Context, path, text string) {
	s.printf("\n%s %s\n", mutedStyle.Render("inbox:"), filepath.Base(path))
	s.submit(ctx, text)
	s.prompt()
}

// onChange reports the loading transition; results are printed by submit.
func (s *watchSession) onChange(result entities.AnalysisResult) {
	if result.IsLoading {
		renderResult(s.out, result, nil)
	}
}

func (s *watchSession) prompt() {
	s.printf("> ")
}

func (s *watchSession) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// syncWriter serializes writes from the prompt loop and the inbox goroutine.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
