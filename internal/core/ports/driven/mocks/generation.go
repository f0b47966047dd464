package mocks

import (
	"context"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
)

// MockGenerationService is a mock implementation of GenerationService for testing
type MockGenerationService struct {
	answer   string
	failNext bool
	prompts  []string
}

// NewMockGenerationService creates a new MockGenerationService
func NewMockGenerationService() *MockGenerationService {
	return &MockGenerationService{answer: "mock answer"}
}

func (m *MockGenerationService) Generate(ctx context.Context, prompt string) (string, error) {
	if m.failNext {
		m.failNext = false
		return "", domain.ErrGenerationUnavailable
	}
	m.prompts = append(m.prompts, prompt)
	return m.answer, nil
}

func (m *MockGenerationService) Model() string {
	return "mock-generation-model"
}

func (m *MockGenerationService) Ping(ctx context.Context) error {
	return nil
}

func (m *MockGenerationService) Close() error {
	return nil
}

// Helper methods for testing

func (m *MockGenerationService) SetAnswer(answer string) {
	m.answer = answer
}

func (m *MockGenerationService) SetFailNext(fail bool) {
	m.failNext = fail
}

// Prompts returns the prompts passed to Generate, in order
func (m *MockGenerationService) Prompts() []string {
	return m.prompts
}
