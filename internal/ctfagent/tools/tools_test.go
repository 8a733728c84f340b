package tools

import (
	"context"
	"testing"
	"time"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/container"
)

type fakeExecer struct {
	res container.ExecResult
	err error
}

func (f *fakeExecer) Exec(ctx context.Context, command string, timeout time.Duration) (container.ExecResult, error) {
	return f.res, f.err
}

type fakeCopyInner struct {
	finalPath string
	err       error
}

func (f *fakeCopyInner) CopyIn(ctx context.Context, hostPath, containerPath string) (string, error) {
	return f.finalPath, f.err
}

type fakeSolver struct {
	flag   string
	solved bool
}

func (f *fakeSolver) Flag() string   { return f.flag }
func (f *fakeSolver) MarkSolved()    { f.solved = true }

type fakeGiveupper struct{ gaveUp bool }

func (f *fakeGiveupper) MarkGiveup() { f.gaveUp = true }

func TestRunCommandMissingCommand(t *testing.T) {
	rc := NewRunCommand(&fakeExecer{})
	result, err := rc.Call(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["error"] != "No command provided" {
		t.Errorf("result = %v, want error=No command provided", result)
	}
}

func TestRunCommandSuccess(t *testing.T) {
	rc := 0
	rc2 := &rc
	exec := &fakeExecer{res: container.ExecResult{Stdout: "hi", ReturnCode: rc2}}
	tool := NewRunCommand(exec)

	result, err := tool.Call(context.Background(), map[string]any{"command": "echo hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["stdout"] != "hi" {
		t.Errorf("stdout = %v, want hi", result["stdout"])
	}
}

func TestSubmitFlagCases(t *testing.T) {
	tests := []struct {
		name      string
		flag      string
		submitted string
		wantSolve bool
	}{
		{"exact match", "flag{abc}", "flag{abc}", true},
		{"mismatch", "flag{abc}", "flag{xyz}", false},
		{"case sensitive", "flag{abc}", "FLAG{abc}", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			solver := &fakeSolver{flag: tt.flag}
			sf := NewSubmitFlag(solver)
			result, err := sf.Call(context.Background(), map[string]any{"flag": tt.submitted})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if solver.solved != tt.wantSolve {
				t.Errorf("solved = %v, want %v", solver.solved, tt.wantSolve)
			}
			if tt.wantSolve && result["success"] != true {
				t.Errorf("result = %v, want success=true", result)
			}
			if !tt.wantSolve && result["error"] != "Flag is wrong!" {
				t.Errorf("result = %v, want error=Flag is wrong!", result)
			}
		})
	}
}

func TestGiveUpAlwaysSetsFlag(t *testing.T) {
	g := &fakeGiveupper{}
	tool := NewGiveUp(g)
	if _, err := tool.Call(context.Background(), map[string]any{"confirm": false}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.gaveUp {
		t.Errorf("giveup must take effect regardless of confirm value")
	}
}

func TestCreateFileDelegatesToCopyInner(t *testing.T) {
	cp := &fakeCopyInner{finalPath: "/home/ctfplayer/exploit.py"}
	tool := NewCreateFile(cp)
	result, err := tool.Call(context.Background(), map[string]any{"path": "exploit.py", "contents": "print(1)"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["success"] != true || result["path"] != "/home/ctfplayer/exploit.py" {
		t.Errorf("result = %v", result)
	}
}
