package club

import (
	"context"

	"bookclub_bot/internal/model"
)

// Questions returns the discussion questions in the order they were asked.
func (c *Club) Questions() []model.DiscussionQuestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Questions()
}

// AddQuestion appends a discussion question.
func (c *Club) AddQuestion(ctx context.Context, text string) (model.DiscussionQuestion, error) {
	return c.editQuestions(ctx, func() (model.DiscussionQuestion, error) {
		return c.engine.AddQuestion(text)
	})
}

// ToggleAnswered flips the answered mark of a question. ref is a 1-based
// position or a question ID.
func (c *Club) ToggleAnswered(ctx context.Context, ref string) (model.DiscussionQuestion, error) {
	return c.editQuestions(ctx, func() (model.DiscussionQuestion, error) {
		return c.engine.ToggleAnswered(ref)
	})
}

// RemoveQuestion deletes a question.
func (c *Club) RemoveQuestion(ctx context.Context, ref string) (model.DiscussionQuestion, error) {
	return c.editQuestions(ctx, func() (model.DiscussionQuestion, error) {
		return c.engine.RemoveQuestion(ref)
	})
}

func (c *Club) editQuestions(ctx context.Context, op func() (model.DiscussionQuestion, error)) (model.DiscussionQuestion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := op()
	if err != nil {
		return model.DiscussionQuestion{}, err
	}
	c.saveQuestions(ctx)
	return q, nil
}
