package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nyu-llm-ctf/agentcore/pkg/models"
)

func writeTemplates(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestGetInterpolatesChallengeAndPrompterFields(t *testing.T) {
	path := writeTemplates(t, "system: \"Solve {challenge.name} ({challenge.category}). {prompter.server_description}\"\n")
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	challenge := &models.Challenge{Name: "baby-rev", Category: models.CategoryReverse, ServerType: models.ServerNone}
	got := m.Get("system", challenge, EnvironmentView{}, nil)
	want := "Solve baby-rev (rev). "
	if got != want {
		t.Errorf("Get(system) = %q, want %q", got, want)
	}
}

func TestGetMissingKeyReturnsEmptyString(t *testing.T) {
	path := writeTemplates(t, "system: \"hi\"\n")
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	challenge := &models.Challenge{Name: "x", Category: models.CategoryMisc}
	if got := m.Get("nonexistent", challenge, EnvironmentView{}, nil); got != "" {
		t.Errorf("Get(missing key) = %q, want empty string", got)
	}
}

func TestGetUnknownPlaceholderRendersEmpty(t *testing.T) {
	path := writeTemplates(t, "system: \"{challenge.nonexistent_field} end\"\n")
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	challenge := &models.Challenge{Name: "x", Category: models.CategoryMisc}
	if got := m.Get("system", challenge, EnvironmentView{}, nil); got != " end" {
		t.Errorf("Get = %q, want %q", got, " end")
	}
}

func TestReloadPicksUpFileChanges(t *testing.T) {
	path := writeTemplates(t, "system: \"v1\"\n")
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	challenge := &models.Challenge{Name: "x", Category: models.CategoryMisc}
	if got := m.Get("system", challenge, EnvironmentView{}, nil); got != "v1" {
		t.Fatalf("Get = %q, want v1", got)
	}
	if err := os.WriteFile(path, []byte("system: \"v2\"\n"), 0o644); err != nil {
		t.Fatalf("rewriting fixture: %v", err)
	}
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := m.Get("system", challenge, EnvironmentView{}, nil); got != "v2" {
		t.Errorf("Get after Reload = %q, want v2", got)
	}
}
