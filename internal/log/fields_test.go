package log

import (
	"errors"
	"testing"
)

func TestLogFieldsBuilder(t *testing.T) {
	fields := NewFields().
		WithComponent(ComponentHTTP).
		WithRequestID("req_abc").
		WithTransaction("tx-1", "u1", "이마트", 12500, 3)

	if fields[FieldComponent] != ComponentHTTP {
		t.Errorf("component = %v", fields[FieldComponent])
	}
	if fields[FieldAmountWon] != int64(12500) {
		t.Errorf("amount = %v", fields[FieldAmountWon])
	}
	if fields[FieldItemCount] != 3 {
		t.Errorf("item count = %v", fields[FieldItemCount])
	}

	slice := fields.ToSlice()
	if len(slice) != len(fields)*2 {
		t.Errorf("ToSlice len = %d, want %d", len(slice), len(fields)*2)
	}
}

func TestWithErrorNilIsNoop(t *testing.T) {
	fields := NewFields().WithError(nil)
	if _, ok := fields[FieldError]; ok {
		t.Error("nil error should not add a field")
	}

	fields = fields.WithError(errors.New("boom"))
	if fields[FieldError] != "boom" {
		t.Errorf("error = %v", fields[FieldError])
	}
}

func TestWithComponentScopesLogger(t *testing.T) {
	logger := New(DefaultConfig())
	scoped := logger.WithComponent(ComponentWorker)

	if scoped.Component() != ComponentWorker {
		t.Errorf("component = %q, want %q", scoped.Component(), ComponentWorker)
	}
	if logger.Component() != ComponentApp {
		t.Error("scoping must not mutate the parent logger")
	}
}
