package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintask/fintask-go/internal/domain"
	"github.com/fintask/fintask-go/internal/pkg/logger"
)

type fakeSafety struct {
	blocked bool
	calls   int
}

func (f *fakeSafety) Check(string) error {
	f.calls++
	if f.blocked {
		return &domain.BlockedPromptError{Signature: "test-signature"}
	}
	return nil
}

type fakeBulk struct {
	result  domain.Result
	matched bool
	calls   int
}

func (f *fakeBulk) Try(context.Context, string) (domain.Result, bool) {
	f.calls++
	return f.result, f.matched
}

func newTestChat(safety *fakeSafety, bulk *fakeBulk, gen *fakeGenerator) (*ChatService, *fakeStore) {
	store := newFakeStore()
	intent := newTestProcessor(store, gen, nil, &fakeFallback{result: domain.Result{Success: true}})
	return NewChatService(safety, bulk, intent, logger.Nop()), store
}

func TestHandleBlockedPromptShortCircuits(t *testing.T) {
	safety := &fakeSafety{blocked: true}
	bulk := &fakeBulk{}
	gen := &fakeGenerator{answer: `{"action": "get_todos", "params": {}}`}
	chat, store := newTestChat(safety, bulk, gen)

	result := chat.Handle(context.Background(), "generate a motivational message for the fintask app")
	assert.False(t, result.Success)
	assert.Equal(t, domain.ModeBlocked, result.ProcessingMode)

	// Nothing past the filter runs.
	assert.Equal(t, 0, bulk.calls)
	assert.Equal(t, 0, gen.calls)
	assert.Empty(t, store.todos)
}

func TestHandleBulkMatchWinsOverModel(t *testing.T) {
	safety := &fakeSafety{}
	bulk := &fakeBulk{matched: true, result: domain.Result{Success: true, CompletedCount: 3}}
	gen := &fakeGenerator{}
	chat, _ := newTestChat(safety, bulk, gen)

	result := chat.Handle(context.Background(), "complete all overdue tasks")
	assert.Equal(t, domain.ModeRuleBased, result.ProcessingMode)
	assert.Equal(t, 3, result.CompletedCount)
	assert.Equal(t, 0, gen.calls)
}

func TestHandleFallsThroughToIntentProcessor(t *testing.T) {
	safety := &fakeSafety{}
	bulk := &fakeBulk{}
	gen := &fakeGenerator{answer: `{"action": "get_todos", "params": {"completed": false}}`}
	chat, _ := newTestChat(safety, bulk, gen)

	result := chat.Handle(context.Background(), "show my pending tasks")
	require.Equal(t, 1, safety.calls)
	require.Equal(t, 1, bulk.calls)
	assert.Equal(t, domain.ModeGemini, result.ProcessingMode)
	assert.True(t, result.Success)
}

func TestHandleNilStagesAreSkipped(t *testing.T) {
	gen := &fakeGenerator{answer: `{"action": "get_todos", "params": {}}`}
	intent := newTestProcessor(newFakeStore(), gen, nil, &fakeFallback{})
	chat := NewChatService(nil, nil, intent, logger.Nop())

	result := chat.Handle(context.Background(), "show my tasks")
	assert.Equal(t, domain.ModeGemini, result.ProcessingMode)
}
