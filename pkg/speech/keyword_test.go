package speech_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/speech"
)

func writeKeywordFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keywords.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing keyword file: %v", err)
	}
	return path
}

func TestNewKeywordRecognitionModelFromFile_SkipsBlanksAndComments(t *testing.T) {
	path := writeKeywordFile(t, "# wake words\nhey computer\n\n  ok computer  \n# end\n")
	model, err := speech.NewKeywordRecognitionModelFromFile(path)
	if err != nil {
		t.Fatalf("NewKeywordRecognitionModelFromFile: %v", err)
	}
	want := []string{"hey computer", "ok computer"}
	if got := model.Phrases(); !reflect.DeepEqual(got, want) {
		t.Errorf("Phrases() = %v, want %v", got, want)
	}
}

func TestNewKeywordRecognitionModelFromFile_OnlyComments_Error(t *testing.T) {
	path := writeKeywordFile(t, "# nothing here\n\n")
	if _, err := speech.NewKeywordRecognitionModelFromFile(path); err == nil {
		t.Error("expected error for model without phrases, got nil")
	}
}

func TestNewKeywordRecognitionModelFromFile_MissingFile_Error(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.txt")
	if _, err := speech.NewKeywordRecognitionModelFromFile(path); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestNewKeywordRecognitionModel_NoPhrases_Error(t *testing.T) {
	if _, err := speech.NewKeywordRecognitionModel(); err == nil {
		t.Error("expected error for empty phrase list, got nil")
	}
}

func TestKeywordRecognitionModel_Phrases_ReturnsCopy(t *testing.T) {
	model, err := speech.NewKeywordRecognitionModel("hey computer")
	if err != nil {
		t.Fatalf("NewKeywordRecognitionModel: %v", err)
	}
	got := model.Phrases()
	got[0] = "mutated"
	if model.Phrases()[0] != "hey computer" {
		t.Error("mutating the returned slice changed the model")
	}
}
