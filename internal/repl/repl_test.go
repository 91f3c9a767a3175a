package repl

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"pdf-agent/internal/models"
)

type scriptedAnswerer struct {
	questions []string
	errs      []error
	panicOn   string
}

func (s *scriptedAnswerer) Query(ctx context.Context, question string) (*models.PromptResponse, error) {
	turn := len(s.questions)
	s.questions = append(s.questions, question)
	if question == s.panicOn {
		panic("nil map write")
	}
	if turn < len(s.errs) && s.errs[turn] != nil {
		return nil, s.errs[turn]
	}
	return &models.PromptResponse{Query: question, Source: "doc.pdf p. 1", Content: "answer to " + question}, nil
}

func run(t *testing.T, a Answerer, input string) (*Loop, string) {
	t.Helper()
	var out bytes.Buffer
	l := New(a, strings.NewReader(input), &out, models.MessagesFor("pt"), true)
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if l.State() != StateDone {
		t.Fatalf("State() = %v, want done", l.State())
	}
	return l, out.String()
}

func TestExitKeywordStopsWithoutAnswering(t *testing.T) {
	for _, input := range []string{"sair\n", "  SAIR  \n", "Sair\nnever asked\n"} {
		a := &scriptedAnswerer{}
		_, out := run(t, a, input)
		if len(a.questions) != 0 {
			t.Errorf("input %q: answerer called with %q", input, a.questions)
		}
		if !strings.Contains(out, "Encerrando o programa. Até mais!") {
			t.Errorf("input %q: farewell missing from %q", input, out)
		}
	}
}

func TestBlankLinesReprompt(t *testing.T) {
	a := &scriptedAnswerer{}
	_, out := run(t, a, "\n   \n\t\nsair\n")

	if len(a.questions) != 0 {
		t.Errorf("answerer called with %q", a.questions)
	}
	if got := strings.Count(out, "Sua pergunta: "); got != 4 {
		t.Errorf("prompted %d times, want 4", got)
	}
}

func TestFailureThenRecovery(t *testing.T) {
	a := &scriptedAnswerer{errs: []error{errors.New("dial tcp: connection refused")}}
	_, out := run(t, a, "primeira\nsegunda\nsair\n")

	if len(a.questions) != 2 {
		t.Fatalf("questions = %q, want two turns", a.questions)
	}
	if !strings.Contains(out, "Ocorreu um erro: dial tcp: connection refused") {
		t.Errorf("diagnostic missing:\n%s", out)
	}
	if !strings.Contains(out, "Reiniciando o loop de perguntas.") {
		t.Errorf("restart notice missing:\n%s", out)
	}
	if !strings.Contains(out, "Resposta do Agente:\nanswer to segunda") {
		t.Errorf("second turn not answered:\n%s", out)
	}
	if strings.Contains(out, "answer to primeira") {
		t.Errorf("failed turn printed an answer:\n%s", out)
	}
	if !strings.Contains(out, strings.Repeat("-", 50)) {
		t.Errorf("separator missing:\n%s", out)
	}
}

func TestPanicIsRecovered(t *testing.T) {
	a := &scriptedAnswerer{panicOn: "boom"}
	_, out := run(t, a, "boom\nok\nsair\n")

	if !strings.Contains(out, "Ocorreu um erro: nil map write") {
		t.Errorf("panic not reported:\n%s", out)
	}
	if !strings.Contains(out, "answer to ok") {
		t.Errorf("loop did not continue after panic:\n%s", out)
	}
}

func TestEOFEndsLoop(t *testing.T) {
	a := &scriptedAnswerer{}
	_, out := run(t, a, "pergunta sem fim")

	if len(a.questions) != 1 || a.questions[0] != "pergunta sem fim" {
		t.Errorf("questions = %q", a.questions)
	}
	if !strings.Contains(out, "Até mais!") {
		t.Errorf("farewell missing on EOF:\n%s", out)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &scriptedAnswerer{}
	l := New(a, strings.NewReader("pergunta\n"), &bytes.Buffer{}, models.MessagesFor("en"), false)
	if err := l.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
	if len(a.questions) != 0 {
		t.Errorf("answerer called after cancel")
	}
}

func TestEnglishExitKeyword(t *testing.T) {
	a := &scriptedAnswerer{}
	var out bytes.Buffer
	l := New(a, strings.NewReader("EXIT\n"), &out, models.MessagesFor("en"), false)
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(a.questions) != 0 || !strings.Contains(out.String(), "See you!") {
		t.Errorf("exit not honoured: %q", out.String())
	}
}

func TestOversizedLineIsSkipped(t *testing.T) {
	a := &scriptedAnswerer{}
	input := strings.Repeat("x", 70*1024) + "\nsegunda\nsair\n"
	_, out := run(t, a, input)

	if len(a.questions) != 1 || a.questions[0] != "segunda" {
		t.Fatalf("questions = %d, want only segunda", len(a.questions))
	}
	if !strings.Contains(out, "Ocorreu um erro: input line too long") {
		t.Errorf("oversized line not reported:\n%.300s", out)
	}
	if !strings.Contains(out, "answer to segunda") {
		t.Errorf("loop did not continue after oversized line")
	}
}

func TestLineAtLimitIsAnswered(t *testing.T) {
	a := &scriptedAnswerer{}
	question := strings.Repeat("y", MaxLineBytes)
	run(t, a, question+"\r\nsair\n")

	if len(a.questions) != 1 || a.questions[0] != question {
		t.Fatalf("got %d questions, want the full line", len(a.questions))
	}
}

func TestExitHintUsesConfiguredKeyword(t *testing.T) {
	msgs := models.MessagesFor("pt")
	msgs.ExitKeyword = "tchau"
	var out bytes.Buffer
	a := &scriptedAnswerer{}
	l := New(a, strings.NewReader("sair\ntchau\n"), &out, msgs, false)
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), `Digite "tchau"`) {
		t.Errorf("hint does not name the configured keyword:\n%s", out.String())
	}
	if len(a.questions) != 1 || a.questions[0] != "sair" {
		t.Errorf("questions = %q, want [sair]", a.questions)
	}
}
