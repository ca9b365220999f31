package notifier

import (
	"context"
	"errors"
	"testing"
)

type mockNotifier struct {
	name       string
	sendCalled int
	batchCalls int
	shouldFail bool
}

func (m *mockNotifier) Name() string { return m.name }

func (m *mockNotifier) Send(ctx context.Context, r Report) error {
	m.sendCalled++
	if m.shouldFail {
		return errors.New("send failed")
	}
	return nil
}

func (m *mockNotifier) SendBatch(ctx context.Context, reports []Report) error {
	m.batchCalls++
	if m.shouldFail {
		return errors.New("batch send failed")
	}
	return nil
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	mock := &mockNotifier{name: "test"}
	err := r.Register(mock)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Duplicate registration should fail
	err = r.Register(mock)
	if err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()

	mock := &mockNotifier{name: "test"}
	r.Register(mock)

	n, err := r.Get("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Name() != "test" {
		t.Errorf("expected 'test', got '%s'", n.Name())
	}

	// Non-existent notifier
	_, err = r.Get("nonexistent")
	if err == nil {
		t.Error("expected error for non-existent notifier")
	}
}

func TestRegistry_GetAll(t *testing.T) {
	r := NewRegistry()

	r.Register(&mockNotifier{name: "b"})
	r.Register(&mockNotifier{name: "a"})

	all := r.GetAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 notifiers, got %d", len(all))
	}
	if all[0].Name() != "a" || all[1].Name() != "b" {
		t.Error("expected notifiers ordered by name")
	}
	if r.Len() != 2 {
		t.Errorf("expected Len 2, got %d", r.Len())
	}
}

func TestRegistry_NotifyAll(t *testing.T) {
	r := NewRegistry()

	mock1 := &mockNotifier{name: "n1"}
	mock2 := &mockNotifier{name: "n2"}
	r.Register(mock1)
	r.Register(mock2)

	errs := r.NotifyAll(context.Background(), Report{Symbol: "TEST", ReturnPct: 1.2})

	if len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}

	if mock1.sendCalled != 1 {
		t.Errorf("expected mock1.sendCalled = 1, got %d", mock1.sendCalled)
	}
	if mock2.sendCalled != 1 {
		t.Errorf("expected mock2.sendCalled = 1, got %d", mock2.sendCalled)
	}
}

func TestRegistry_NotifyAll_WithFailure(t *testing.T) {
	r := NewRegistry()

	mock1 := &mockNotifier{name: "n1"}
	mock2 := &mockNotifier{name: "n2", shouldFail: true}
	r.Register(mock1)
	r.Register(mock2)

	errs := r.NotifyAll(context.Background(), Report{Symbol: "TEST", ReturnPct: 1.2})

	if len(errs) != 1 {
		t.Errorf("expected 1 error, got %d", len(errs))
	}
	if _, ok := errs["n2"]; !ok {
		t.Error("expected error from n2")
	}
}

func TestRegistry_NotifyAllBatch(t *testing.T) {
	r := NewRegistry()

	mock := &mockNotifier{name: "batch"}
	r.Register(mock)

	reports := []Report{
		{Symbol: "A", Preset: "default"},
		{Symbol: "B", Preset: "scalper"},
	}
	errs := r.NotifyAllBatch(context.Background(), reports)

	if len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
	if mock.batchCalls != 1 {
		t.Errorf("expected batchCalls = 1, got %d", mock.batchCalls)
	}
}

func TestRegistry_NotifyAllBatch_Empty(t *testing.T) {
	r := NewRegistry()
	mock := &mockNotifier{name: "batch"}
	r.Register(mock)

	r.NotifyAllBatch(context.Background(), nil)
	if mock.batchCalls != 0 {
		t.Error("empty batch should not be sent")
	}
}
