package conversation

import (
	"strings"
	"testing"

	"github.com/voxpoll/voxpoll/internal/survey"
)

func TestBuildPromptRendersNumberedQuestions(t *testing.T) {
	questions := []survey.Question{
		{ID: 1, QuestionText: "Favorite color?", QuestionOrder: 1},
		{ID: 2, QuestionText: "Why?", QuestionOrder: 2},
	}

	prompt := BuildPrompt(questions)

	if !strings.Contains(prompt, "Survey questions:\n1. Favorite color?\n2. Why?") {
		t.Fatalf("numbered question list missing from prompt:\n%s", prompt)
	}
	if !strings.HasPrefix(prompt, "You are a friendly, professional survey interviewer.") {
		t.Fatalf("unexpected prompt opening:\n%s", prompt)
	}
	if !strings.HasSuffix(prompt, "Continue the survey conversation.") {
		t.Fatalf("unexpected prompt closing:\n%s", prompt)
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	questions := []survey.Question{
		{QuestionText: "How often do you cook?"},
		{QuestionText: "What do you cook most?"},
	}
	if BuildPrompt(questions) != BuildPrompt(questions) {
		t.Fatal("expected identical output for identical input")
	}
}

func TestBuildPromptNumbersBySlicePosition(t *testing.T) {
	// Numbering follows list position, not the (possibly gappy) order key.
	questions := []survey.Question{
		{QuestionText: "First", QuestionOrder: 10},
		{QuestionText: "Second", QuestionOrder: 40},
	}
	prompt := BuildPrompt(questions)
	if !strings.Contains(prompt, "1. First\n2. Second") {
		t.Fatalf("expected positional numbering, got:\n%s", prompt)
	}
}

func TestBuildPromptEmptyQuestionList(t *testing.T) {
	prompt := BuildPrompt(nil)
	if !strings.Contains(prompt, "Survey questions:\n\n") {
		t.Fatalf("expected empty question section:\n%s", prompt)
	}
}
