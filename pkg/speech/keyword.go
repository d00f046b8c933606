package speech

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// KeywordRecognitionModel is a set of trigger phrases for keyword
// recognition. Models are immutable after construction.
type KeywordRecognitionModel struct {
	phrases []string
}

// NewKeywordRecognitionModelFromFile loads a keyword model from a text
// file: one phrase per line, blank lines and '#' comments ignored.
func NewKeywordRecognitionModelFromFile(path string) (*KeywordRecognitionModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("speech: open keyword model %q: %w", path, err)
	}
	defer f.Close()

	var phrases []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		phrases = append(phrases, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("speech: read keyword model %q: %w", path, err)
	}
	if len(phrases) == 0 {
		return nil, fmt.Errorf("speech: keyword model %q contains no phrases", path)
	}
	return &KeywordRecognitionModel{phrases: phrases}, nil
}

// NewKeywordRecognitionModel builds a model from literal phrases.
func NewKeywordRecognitionModel(phrases ...string) (*KeywordRecognitionModel, error) {
	if len(phrases) == 0 {
		return nil, fmt.Errorf("speech: keyword model needs at least one phrase")
	}
	return &KeywordRecognitionModel{phrases: append([]string(nil), phrases...)}, nil
}

// Phrases returns a copy of the model's trigger phrases.
func (m *KeywordRecognitionModel) Phrases() []string {
	return append([]string(nil), m.phrases...)
}
