package file

import (
	"context"
	"fmt"
	"os"

	"examprep-quiz/internal/domain"
	"gopkg.in/yaml.v3"
)

// Bank is the on-disk layout of a question bank.
type Bank struct {
	Sections []domain.Section `yaml:"sections"`
}

// BankLoader reads the question bank from a YAML file on every load;
// caching is left to the bank repository in front of it.
type BankLoader struct {
	path string
}

func NewBankLoader(path string) *BankLoader {
	return &BankLoader{path: path}
}

func (l *BankLoader) LoadBank(_ context.Context) ([]domain.Section, error) {
	bank, err := ReadBank(l.path)
	if err != nil {
		return nil, err
	}
	return bank.Sections, nil
}

// ReadBank parses and validates the YAML bank at path.
func ReadBank(path string) (Bank, error) {
	var bank Bank
	data, err := os.ReadFile(path)
	if err != nil {
		return bank, fmt.Errorf("read bank: %w", err)
	}
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return bank, fmt.Errorf("parse bank: %w", err)
	}
	if err := domain.ValidateBank(bank.Sections); err != nil {
		return bank, err
	}
	return bank, nil
}
