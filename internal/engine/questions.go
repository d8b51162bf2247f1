package engine

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"bookclub_bot/internal/model"
)

// AddQuestion appends a discussion question.
func (e *Engine) AddQuestion(text string) (model.DiscussionQuestion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.DiscussionQuestion{}, ErrEmptyQuestion
	}
	q := model.DiscussionQuestion{
		ID:        e.newID(),
		Text:      text,
		CreatedAt: e.now(),
	}
	e.questions = append(e.questions, q)
	return q, nil
}

// ToggleAnswered flips the answered flag of the referenced question.
// A ref is a 1-based position or a question ID.
func (e *Engine) ToggleAnswered(ref string) (model.DiscussionQuestion, error) {
	idx, err := e.questionIndex(ref)
	if err != nil {
		return model.DiscussionQuestion{}, err
	}
	e.questions[idx].Answered = !e.questions[idx].Answered
	return e.questions[idx], nil
}

// RemoveQuestion deletes the referenced question and returns it.
func (e *Engine) RemoveQuestion(ref string) (model.DiscussionQuestion, error) {
	idx, err := e.questionIndex(ref)
	if err != nil {
		return model.DiscussionQuestion{}, err
	}
	q := e.questions[idx]
	e.questions = slices.Delete(e.questions, idx, idx+1)
	return q, nil
}

// Questions returns the question list in insertion order.
func (e *Engine) Questions() []model.DiscussionQuestion {
	return slices.Clone(e.questions)
}

func (e *Engine) questionIndex(ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(e.questions) {
			return 0, fmt.Errorf("%w: #%d", ErrQuestionNotFound, n)
		}
		return n - 1, nil
	}
	idx := slices.IndexFunc(e.questions, func(q model.DiscussionQuestion) bool { return q.ID == ref })
	if idx < 0 {
		return 0, fmt.Errorf("%w: %q", ErrQuestionNotFound, ref)
	}
	return idx, nil
}
