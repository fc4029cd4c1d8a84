package ops_test

import (
	"context"
	"testing"

	"github.com/urim-raffle/gateway/core/ops"
)

type mockOp struct {
	kind ops.Kind
	desc string
}

func (m *mockOp) Kind() ops.Kind      { return m.kind }
func (m *mockOp) Description() string { return m.desc }
func (m *mockOp) Execute(_ context.Context, _ ops.Request) (ops.Reply, error) {
	return ops.Reply{Text: "ok"}, nil
}

func TestRegisterAndGet(t *testing.T) {
	r := ops.NewRegistry()
	op := &mockOp{kind: "test", desc: "a test op"}

	if err := r.Register(op); err != nil {
		t.Fatalf("register: %v", err)
	}

	got := r.Get("test")
	if got == nil {
		t.Fatal("expected op, got nil")
	}
	if got.Kind() != "test" {
		t.Errorf("kind = %q, want %q", got.Kind(), "test")
	}
}

func TestGetNotFound(t *testing.T) {
	r := ops.NewRegistry()
	if got := r.Get("missing"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestDuplicateRegister(t *testing.T) {
	r := ops.NewRegistry()
	if err := r.Register(&mockOp{kind: "dup", desc: "first"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(&mockOp{kind: "dup", desc: "second"}); err == nil {
		t.Fatal("expected error on duplicate register")
	}
}

func TestRegisterEmptyKind(t *testing.T) {
	r := ops.NewRegistry()
	if err := r.Register(&mockOp{kind: ""}); err == nil {
		t.Fatal("expected error for empty kind")
	}
}

func TestList(t *testing.T) {
	r := ops.NewRegistry()
	r.Register(&mockOp{kind: "zebra", desc: "z"})
	r.Register(&mockOp{kind: "alpha", desc: "a"})
	r.Register(&mockOp{kind: "middle", desc: "m"})

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}

	expected := []ops.Kind{"alpha", "middle", "zebra"}
	for i, op := range list {
		if op.Kind() != expected[i] {
			t.Errorf("list[%d] = %q, want %q", i, op.Kind(), expected[i])
		}
	}
}

func TestListEmpty(t *testing.T) {
	r := ops.NewRegistry()
	if list := r.List(); len(list) != 0 {
		t.Fatalf("len = %d, want 0", len(list))
	}
}
