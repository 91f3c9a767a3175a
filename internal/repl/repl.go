package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"pdf-agent/internal/helper"
	"pdf-agent/internal/models"
)

// MaxLineBytes bounds one question; longer lines are reported and skipped
const MaxLineBytes = 64 * 1024

var ErrLineTooLong = errors.New("input line too long")

type State int

const (
	StateWaiting State = iota
	StateProcessing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateProcessing:
		return "processing"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Answerer answers one question; *rag.RAG satisfies it
type Answerer interface {
	Query(ctx context.Context, question string) (*models.PromptResponse, error)
}

// Loop reads questions line by line until the exit keyword or EOF
type Loop struct {
	answerer    Answerer
	in          *bufio.Reader
	out         io.Writer
	msgs        models.Messages
	showSources bool
	state       State
}

func New(answerer Answerer, in io.Reader, out io.Writer, msgs models.Messages, showSources bool) *Loop {
	return &Loop{
		answerer:    answerer,
		in:          bufio.NewReader(in),
		out:         out,
		msgs:        msgs,
		showSources: showSources,
		state:       StateWaiting,
	}
}

func (l *Loop) State() State { return l.state }

// Run drives the loop until it reaches StateDone. Failures while answering never end the loop.
func (l *Loop) Run(ctx context.Context) error {
	fmt.Fprintf(l.out, "\n%s\n%s\n\n", l.msgs.Ready, l.msgs.Hint())

	for l.state != StateDone {
		if err := ctx.Err(); err != nil {
			l.state = StateDone
			return err
		}

		fmt.Fprint(l.out, l.msgs.Prompt)
		raw, err := l.readLine()
		if errors.Is(err, ErrLineTooLong) {
			log.Warn().Int("max_bytes", MaxLineBytes).Msg("Skipping oversized input line")
			l.printError(err)
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Error().Err(err).Msg("Error reading input")
			}
			fmt.Fprintf(l.out, "\n%s\n", l.msgs.Farewell)
			l.state = StateDone
			break
		}
		line := strings.TrimSpace(raw)

		switch {
		case strings.EqualFold(line, l.msgs.ExitKeyword):
			fmt.Fprintln(l.out, l.msgs.Farewell)
			l.state = StateDone
		case line == "":
		default:
			l.state = StateProcessing
			l.process(ctx, line)
			l.state = StateWaiting
		}
	}
	return nil
}

// readLine returns the next line without its terminator. A line over MaxLineBytes is consumed
// up to its end and reported as ErrLineTooLong.
func (l *Loop) readLine() (string, error) {
	var buf []byte
	tooLong := false
	for {
		part, isPrefix, err := l.in.ReadLine()
		if err != nil {
			if tooLong || len(buf) > 0 {
				break
			}
			return "", err
		}
		if !tooLong {
			if len(buf)+len(part) > MaxLineBytes {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, part...)
			}
		}
		if !isPrefix {
			break
		}
	}
	if tooLong {
		return "", fmt.Errorf("%w (limit %d bytes)", ErrLineTooLong, MaxLineBytes)
	}
	return string(buf), nil
}

func (l *Loop) process(ctx context.Context, question string) {
	traceID, _ := helper.GenerateUUID()
	logger := log.With().Str("trace_id", traceID).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Recovered while answering")
			l.printError(fmt.Errorf("%v", r))
		}
	}()

	fmt.Fprintf(l.out, "\n%s\n", l.msgs.Searching)
	logger.Debug().Str("question", question).Msg("Answering question")

	response, err := l.answerer.Query(ctx, question)
	if err != nil {
		logger.Error().Err(err).Msg("Error answering question")
		l.printError(err)
		return
	}

	fmt.Fprintf(l.out, "\n%s\n%s\n", l.msgs.AnswerTitle, response.Content)
	if l.showSources && response.Source != "" {
		fmt.Fprintf(l.out, "%s %s\n", l.msgs.SourceTitle, response.Source)
	}
	fmt.Fprintln(l.out, strings.Repeat("-", models.SeparatorWidth))
}

func (l *Loop) printError(err error) {
	fmt.Fprintf(l.out, "\n%s %v\n%s\n", l.msgs.ErrorPrefix, err, l.msgs.Restarting)
}
