package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	z3 "github.com/typedz3/z3"
	"github.com/typedz3/z3/native/nativetest"
)

func newTestRunner(t *testing.T) (*runner, *bytes.Buffer) {
	t.Helper()
	e := nativetest.New()
	lib, err := z3.OpenLibrary(e)
	if err != nil {
		t.Fatalf("OpenLibrary failed: %v", err)
	}
	t.Cleanup(func() {
		lib.Close()
		if v := e.Violations(); len(v) != 0 {
			t.Errorf("Engine recorded violations: %v", v)
		}
		if n := e.LiveContexts(); n != 0 {
			t.Errorf("Expected every context to be closed, %d live", n)
		}
	})
	var out bytes.Buffer
	return &runner{lib: lib, out: &out, showModel: true}, &out
}

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "problem.smt2")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunner_Check(t *testing.T) {
	r, _ := newTestRunner(t)
	tests := []struct {
		name   string
		src    string
		status z3.Status
		model  string
		reason string
	}{
		{
			name:   "sat",
			src:    "(declare-const x Int)\n(assert (= x 3))\n(check-sat)",
			status: z3.Satisfiable,
			model:  "(define-fun x () Int\n  3)\n",
		},
		{
			name:   "unsat",
			src:    "(declare-const x Int)\n(assert (= x 3))\n(assert (> x 4))",
			status: z3.Unsatisfiable,
		},
		{
			name:   "unknown",
			src:    "(declare-const x Int)\n(assert (> x 4))",
			status: z3.Unknown,
			reason: "incomplete",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.check(tt.src)
			if err != nil {
				t.Fatalf("check failed: %v", err)
			}
			if res.status != tt.status {
				t.Fatalf("Expected %s, got %s", tt.status, res.status)
			}
			if res.model != tt.model {
				t.Fatalf("Expected model %q, got %q", tt.model, res.model)
			}
			if res.reason != tt.reason {
				t.Fatalf("Expected reason %q, got %q", tt.reason, res.reason)
			}
		})
	}

	if _, err := r.check("(assert (= y"); err == nil {
		t.Fatal("Expected a parse error")
	}
}

func TestRunner_Timeout(t *testing.T) {
	r, _ := newTestRunner(t)
	r.timeout = 1500 * time.Millisecond
	res, err := r.check("(declare-const p Bool)\n(assert p)")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if res.status != z3.Satisfiable {
		t.Fatalf("Expected sat, got %s", res.status)
	}
}

func TestRunner_RunFile(t *testing.T) {
	r, out := newTestRunner(t)
	path := writeScript(t, "(declare-const b (_ BitVec 8))\n(assert (= b #x2a))")

	if err := r.runFiles([]string{path}); err != nil {
		t.Fatalf("runFiles failed: %v", err)
	}
	want := "sat " + path + "\n(define-fun b () (_ BitVec 8)\n  #x2a)\n"
	if got := out.String(); got != want {
		t.Fatalf("Expected %q, got %q", want, got)
	}

	out.Reset()
	r.showModel = false
	if err := r.runFile(path); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "sat "+path+"\n" {
		t.Fatalf("Expected status line only, got %q", got)
	}

	err := r.runFile(filepath.Join(t.TempDir(), "missing.smt2"))
	if err == nil || !strings.Contains(err.Error(), "read file") {
		t.Fatalf("Expected a read error, got %v", err)
	}
}

func TestRunner_Parse(t *testing.T) {
	r, _ := newTestRunner(t)
	n, err := r.parse("(declare-const x Int)\n(assert (> x 1))\n(assert (< x 5))")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("Expected 2 assertions, got %d", n)
	}
	if _, err := r.parse("(assert (> z 1))"); err == nil {
		t.Fatal("Expected an undeclared constant to be rejected")
	}
}

// submit types line into the session and runs the command it produces.
func submit(t *testing.T, m *interactiveModel, line string) {
	t.Helper()
	m.input.SetValue(line)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		m.Update(msg)
	}
}

func TestInteractive_Session(t *testing.T) {
	r, _ := newTestRunner(t)
	m := newInteractiveModel(r)

	submit(t, m, "(declare-const x Int)")
	submit(t, m, "(assert (= x 7))")
	if len(m.script) != 2 {
		t.Fatalf("Expected 2 script lines, got %d", len(m.script))
	}

	submit(t, m, "(assert (= y 1))")
	if len(m.script) != 2 {
		t.Fatal("Expected an invalid line to be rejected")
	}
	if last := m.output[len(m.output)-1]; !strings.Contains(last, "unknown constant") {
		t.Fatalf("Expected a parse error in the output, got %q", last)
	}

	submit(t, m, ":check")
	if !strings.Contains(m.model, "(define-fun x () Int\n  7)") {
		t.Fatalf("Expected the model to be kept, got %q", m.model)
	}
	submit(t, m, ":model")
	if last := m.output[len(m.output)-1]; !strings.Contains(last, "7)") {
		t.Fatalf("Expected the model to be printed, got %q", last)
	}

	submit(t, m, ":push")
	submit(t, m, "(assert (> x 8))")
	submit(t, m, ":check")
	if m.model != "" {
		t.Fatal("Expected no model for an unsatisfiable script")
	}
	if last := m.output[len(m.output)-1]; !strings.Contains(last, "unsat") {
		t.Fatalf("Expected unsat, got %q", last)
	}

	submit(t, m, ":pop")
	if len(m.script) != 2 || len(m.marks) != 0 {
		t.Fatalf("Expected pop to restore 2 lines, got %d lines and %d scopes", len(m.script), len(m.marks))
	}
	submit(t, m, ":pop")
	if last := m.output[len(m.output)-1]; !strings.Contains(last, "no scope to pop") {
		t.Fatalf("Expected a pop error, got %q", last)
	}

	submit(t, m, ":bogus")
	submit(t, m, ":reset")
	if len(m.script) != 0 {
		t.Fatal("Expected reset to clear the script")
	}
	if !strings.Contains(m.View(), "0 commands") {
		t.Fatalf("Unexpected view %q", m.View())
	}
}

func TestInteractive_Quit(t *testing.T) {
	r, _ := newTestRunner(t)
	m := newInteractiveModel(r)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("Expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("Expected esc to quit")
	}
}
