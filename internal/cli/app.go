package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-sprint/internal/host"
	"github.com/gokatarajesh/quiz-sprint/internal/metrics"
	"github.com/gokatarajesh/quiz-sprint/internal/quiz"
	"github.com/gokatarajesh/quiz-sprint/internal/session"
	"github.com/gokatarajesh/quiz-sprint/internal/topscore"
)

// Seconds left at which a countdown warning is printed.
var warnAt = map[int]bool{10: true, 5: true}

// Config holds what a terminal game needs.
type Config struct {
	Quiz    *quiz.Quiz
	Store   topscore.Store
	Metrics *metrics.Recorder
	Session session.Options
	Runner  host.Options
	Logger  zerolog.Logger
}

// Run plays one session on the terminal. Letters answer the question shown,
// "n" moves on and "q" ends the quiz early. End of input also ends the quiz.
//
// Run returns as soon as the session completes, even through timeouts. The
// goroutine reading in may still be blocked in a read at that point; it
// exits on the next line or when in is closed, so callers that keep running
// after Run should close in.
func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) (host.Outcome, error) {
	sess, err := session.New(cfg.Quiz, cfg.Session)
	if err != nil {
		return host.Outcome{}, err
	}

	w := &lockedWriter{w: out}
	printIntro(w, cfg.Quiz)

	commands := make(chan host.Command)
	done := make(chan struct{})
	defer close(done)

	go readCommands(in, w, commands, done)

	total := len(cfg.Quiz.Questions)
	runner := host.NewRunner(sess, cfg.Store, cfg.Metrics, cfg.Logger, cfg.Runner)
	return runner.Run(ctx, commands, func(e host.Event) { render(w, e, total) })
}

func readCommands(in io.Reader, w io.Writer, commands chan<- host.Command, done <-chan struct{}) {
	scanner := bufio.NewScanner(in)
	send := func(cmd host.Command) bool {
		select {
		case commands <- cmd:
			return true
		case <-done:
			return false
		}
	}

	for scanner.Scan() {
		select {
		case <-done:
			return
		default:
		}
		cmd, ok := parseInput(scanner.Text())
		if !ok {
			fmt.Fprintln(w, "Invalid input. Enter a letter to answer, n for next, q to quit.")
			continue
		}
		if !send(cmd) {
			return
		}
	}
	send(host.Finish())
}

// parseInput maps one line of input to a command.
func parseInput(line string) (host.Command, bool) {
	input := strings.ToUpper(strings.TrimSpace(line))
	switch input {
	case "N", "NEXT":
		return host.Next(), true
	case "Q", "QUIT":
		return host.Finish(), true
	}
	if len(input) == 1 && input[0] >= 'A' && input[0] <= 'Z' {
		return host.Choose(int(input[0] - 'A')), true
	}
	return host.Command{}, false
}

func printIntro(out io.Writer, q *quiz.Quiz) {
	fmt.Fprintf(out, "%s\n", q.Title)
	if q.Description != "" {
		fmt.Fprintf(out, "%s\n", q.Description)
	}
	fmt.Fprintf(out, "%d questions, %d seconds each.\n", len(q.Questions), session.TimerPeriod)
}

func render(out io.Writer, e host.Event, total int) {
	switch e.Type {
	case host.EventQuestion:
		printQuestion(out, e.State.CurrentQuestionIndex+1, total, *e.Question)

	case host.EventTick:
		if warnAt[e.State.RemainingSeconds] {
			fmt.Fprintf(out, "%d seconds left\n", e.State.RemainingSeconds)
		}

	case host.EventAnswer:
		a := e.Answer
		if a.Correct {
			fmt.Fprintf(out, "Correct! +%d (score %d, streak %d)\n", a.Points, e.State.Score, e.State.Streak)
		} else {
			fmt.Fprintln(out, "Wrong.")
		}
		if a.Solution != "" {
			fmt.Fprintf(out, "Solution: %s\n", a.Solution)
		}

	case host.EventCelebrationStart:
		fmt.Fprintln(out, "*** Nice! ***")

	case host.EventTimeout:
		fmt.Fprint(out, "Time's up.")
		if opt, ok := e.Question.CorrectOption(); ok {
			fmt.Fprintf(out, " Correct answer was %s", opt.Description)
		}
		fmt.Fprintln(out)

	case host.EventRejected:
		fmt.Fprintf(out, "Not accepted: %v\n", e.Err)

	case host.EventCompleted:
		printSummary(out, e)
	}
}

func printQuestion(out io.Writer, number, total int, q quiz.Question) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Q%d/%d: %s\n\n", number, total, q.Description)
	for i, option := range q.Options {
		if i >= 26 {
			break
		}
		fmt.Fprintf(out, "%c. %s\n", 'A'+i, option.Description)
	}
	fmt.Fprintln(out)
}

func printSummary(out io.Writer, e host.Event) {
	o := e.Outcome
	s := o.Summary
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Final score: %d\n", s.Score)
	fmt.Fprintf(out, "Correct: %d/%d (answered %d)\n", s.CorrectCount, s.TotalQuestions, s.Answered)
	fmt.Fprintf(out, "Time taken: %ds\n", s.TimeTakenSeconds)
	switch {
	case e.Err != nil:
		fmt.Fprintf(out, "Best score unavailable: %v\n", e.Err)
	case o.NewBest:
		fmt.Fprintf(out, "New best score! (%d)\n", o.Best)
	default:
		fmt.Fprintf(out, "Best score: %d\n", o.Best)
	}
}

// lockedWriter serializes output from the input and runner goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
