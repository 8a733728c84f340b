package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
)

// CreateFile writes contents to a host-side temp file, then copies it into
// the working container. Grounded on original_source/llm_ctf/tools.py's
// CreateFile.
type CreateFile struct {
	CopyInner CopyInner
}

func NewCreateFile(c CopyInner) *CreateFile { return &CreateFile{CopyInner: c} }

func (t *CreateFile) Name() string        { return "create_file" }
func (t *CreateFile) Description() string { return "Create a file with the given contents inside the challenge container." }

func (t *CreateFile) Parameters() map[string]tool.Param {
	return map[string]tool.Param{
		"path":     {Type: tool.ParamString, Description: "Destination path inside the container."},
		"contents": {Type: tool.ParamString, Description: "File contents to write."},
	}
}

func (t *CreateFile) RequiredParameters() map[string]bool {
	return map[string]bool{"path": true, "contents": true}
}

func (t *CreateFile) Setup(ctx context.Context) error              { return nil }
func (t *CreateFile) Teardown(ctx context.Context, err error) error { return nil }

func (t *CreateFile) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	path, _ := args["path"].(string)
	contents, _ := args["contents"].(string)

	tmp, err := os.CreateTemp("", "ctfagent-create-file-*")
	if err != nil {
		return map[string]any{"error": fmt.Sprintf("could not create temp file: %v", err)}, nil
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(contents); err != nil {
		tmp.Close()
		return map[string]any{"error": fmt.Sprintf("could not write temp file: %v", err)}, nil
	}
	tmp.Close()

	finalPath, err := t.CopyInner.CopyIn(ctx, tmp.Name(), path)
	if err != nil {
		return map[string]any{"error": err.Error()}, nil
	}
	return map[string]any{"success": true, "path": finalPath}, nil
}
