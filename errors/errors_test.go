package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name:     "disposed",
			err:      Disposed(ResourceSolver, "Check"),
			contains: []string{"[solver]", "disposed", "in Check", "solver has been closed"},
		},
		{
			name:     "native with code",
			err:      Native("Assert", 1, "Sort mismatch", nil),
			contains: []string{"native", "in Assert", "Sort mismatch", "(code 1)"},
		},
		{
			name: "with cause",
			err: &Error{
				Kind:   KindNotFound,
				Detail: "missing",
				Cause:  stderrors.New("no such file"),
			},
			contains: []string{"not_found", "missing", "caused by", "no such file"},
		},
		{
			name:     "minimal",
			err:      &Error{Kind: KindInvalidState},
			contains: []string{"invalid_state"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err := Disposed(ResourceModel, "Eval")

	if !stderrors.Is(err, ErrDisposed) {
		t.Fatal("Expected disposed error to match ErrDisposed")
	}
	if stderrors.Is(err, ErrInvalidState) {
		t.Fatal("Expected disposed error not to match ErrInvalidState")
	}
	if !stderrors.Is(err, &Error{Kind: KindDisposed, Resource: ResourceModel}) {
		t.Fatal("Expected match when resource agrees")
	}
	if stderrors.Is(err, &Error{Kind: KindDisposed, Resource: ResourceSolver}) {
		t.Fatal("Expected no match when resource differs")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := Wrap(KindNative, ResourceContext, "NewContext", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("Expected wrapped cause to be reachable")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if KindOf(wrapped) != KindNative {
		t.Fatalf("Expected kind native, got %q", KindOf(wrapped))
	}
	if KindOf(stderrors.New("plain")) != "" {
		t.Fatal("Expected empty kind for plain error")
	}
}

func TestBuilder(t *testing.T) {
	err := New(KindInvalidArgument).
		Resource(ResourceBitVec).
		Op("Extract").
		Code(3).
		Detail("slice [%d, %d) exceeds width %d", 4, 12, 8).
		Build()

	if err.Kind != KindInvalidArgument {
		t.Fatalf("Expected kind invalid_argument, got %q", err.Kind)
	}
	if err.Detail != "slice [4, 12) exceeds width 8" {
		t.Fatalf("Unexpected detail %q", err.Detail)
	}
	if err.Code != 3 || err.Op != "Extract" || err.Resource != ResourceBitVec {
		t.Fatalf("Unexpected fields: %+v", err)
	}

	plain := New(KindUnsupported).Detail("no arguments").Build()
	if plain.Detail != "no arguments" {
		t.Fatalf("Expected detail as given, got %q", plain.Detail)
	}
}
