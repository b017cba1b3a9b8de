package mocks

import (
	"context"
	"errors"

	"github.com/godilite/wellbeing-server/internal/classifier"
)

// MockClassifier is a mock implementation of the Classifier interface.
type MockClassifier struct {
	ClassifyFunc func(ctx context.Context, text string) (classifier.Classification, error)
	Calls        int
}

// Classify implements the Classifier interface
func (m *MockClassifier) Classify(ctx context.Context, text string) (classifier.Classification, error) {
	m.Calls++
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text)
	}
	return classifier.Classification{}, errors.New("ClassifyFunc not implemented")
}
