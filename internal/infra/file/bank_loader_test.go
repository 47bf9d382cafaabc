package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"examprep-quiz/internal/domain"
)

const bankYAML = `
sections:
  - title: JavaScript & DOM
    questions:
      - id: js-1
        question: What will this print?
        type: code-prediction
        code: |
          console.log(typeof null);
        correctAnswer: object
      - id: js-2
        question: Which method adds an element to the end of an array?
        type: multiple-choice
        options: [push, pop, shift, unshift]
        correctAnswer: push
        explanation: push appends to the end.
`

func TestBankLoaderReadsYAML(t *testing.T) {
	path := writeFile(t, bankYAML)

	bank, err := NewBankLoader(path).LoadBank(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(bank) != 1 || len(bank[0].Questions) != 2 {
		t.Fatalf("unexpected bank %+v", bank)
	}
	q := bank[0].Questions[0]
	if q.Type != domain.TypeCodePrediction || q.Code != "console.log(typeof null);\n" {
		t.Fatalf("unexpected question %+v", q)
	}
	if bank[0].Questions[1].Options[0] != "push" {
		t.Fatalf("options not parsed: %+v", bank[0].Questions[1])
	}
}

func TestBankLoaderRejectsInvalidBank(t *testing.T) {
	path := writeFile(t, `
sections:
  - title: Broken
    questions:
      - id: b-1
        question: No options
        type: multiple-choice
`)
	if _, err := NewBankLoader(path).LoadBank(context.Background()); !errors.Is(err, domain.ErrInvalidBank) {
		t.Fatalf("expected ErrInvalidBank, got %v", err)
	}
}

func TestBankLoaderMissingFile(t *testing.T) {
	if _, err := NewBankLoader(filepath.Join(t.TempDir(), "nope.yaml")).LoadBank(context.Background()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestShippedBankIsValid(t *testing.T) {
	bank, err := ReadBank(filepath.Join("..", "..", "..", "config", "bank.yaml"))
	if err != nil {
		t.Fatalf("read shipped bank: %v", err)
	}
	if len(bank.Sections) != 5 {
		t.Fatalf("expected 5 sections, got %d", len(bank.Sections))
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bank.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write bank: %v", err)
	}
	return path
}
