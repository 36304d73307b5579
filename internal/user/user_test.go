package user

import (
	"testing"

	"go.uber.org/zap"
)

func newTestLogger(t *testing.T) *zap.Logger {
	return zap.NewNop()
}

func fixedCode(code string) func(int) string {
	return func(int) string { return code }
}

func newTestService(t *testing.T) *Service {
	svc := NewService(newTestLogger(t), newMockRepository())
	svc.generate = fixedCode("503219")
	return svc
}

func newTestServiceWithRepo(t *testing.T, repo Repository) *Service {
	svc := NewService(newTestLogger(t), repo)
	svc.generate = fixedCode("503219")
	return svc
}
