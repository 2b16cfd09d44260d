package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

type nopExecutor struct{ name string }

func (e *nopExecutor) Invoke(ctx context.Context, input domain.AgentInput, opts ports.InvokeOptions) (ports.ChunkStream, error) {
	return nil, nil
}

func (e *nopExecutor) Resume(ctx context.Context, decisions []domain.Decision, opts ports.InvokeOptions) (ports.ChunkStream, error) {
	return nil, nil
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	agent := &nopExecutor{name: "agent"}
	reg.Register("agent", agent)

	got, err := reg.Resolve("agent")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != agent {
		t.Error("Resolve() returned a different executor")
	}

	_, err = reg.Resolve("ghost")
	if !errors.Is(err, domain.ErrGraphNotFound) {
		t.Errorf("Resolve(ghost) error = %v, want ErrGraphNotFound", err)
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := NewRegistry()
	reg.Register("research", &nopExecutor{})
	reg.Register("agent", &nopExecutor{})
	reg.Register("mailer", &nopExecutor{})

	names := reg.Names()
	want := []string{"agent", "mailer", "research"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestRegistryOverwrite(t *testing.T) {
	reg := NewRegistry()
	first := &nopExecutor{name: "v1"}
	second := &nopExecutor{name: "v2"}

	reg.Register("agent", first)
	reg.Register("agent", second)

	got, err := reg.Resolve("agent")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != second {
		t.Error("Register() did not overwrite existing graph")
	}
}
