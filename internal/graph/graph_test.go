package graph

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type testState struct {
	Trace []string
}

func appendName(name string) NodeFunc[testState] {
	return func(_ context.Context, st *testState) error {
		st.Trace = append(st.Trace, name)
		return nil
	}
}

func failNode(_ context.Context, _ *testState) error {
	return errors.New("node failed")
}

func TestCompileAndInvoke_LinearChain(t *testing.T) {
	g := New[testState]()
	g.AddNode("a", appendName("a"))
	g.AddNode("b", appendName("b"))
	g.AddNode("c", appendName("c"))
	g.SetEntryPoint("a")
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("c", End)

	runner, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if got := runner.Order(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("Order() = %v", got)
	}

	st := &testState{}
	if err := runner.Invoke(context.Background(), st); err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}
	if !reflect.DeepEqual(st.Trace, []string{"a", "b", "c"}) {
		t.Errorf("Trace = %v, want nodes in edge order", st.Trace)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func() *StateGraph[testState]
	}{
		{
			name: "missing entry point",
			build: func() *StateGraph[testState] {
				g := New[testState]()
				g.AddNode("a", appendName("a"))
				g.AddEdge("a", End)
				return g
			},
		},
		{
			name: "cycle",
			build: func() *StateGraph[testState] {
				g := New[testState]()
				g.AddNode("a", appendName("a"))
				g.AddNode("b", appendName("b"))
				g.SetEntryPoint("a")
				g.AddEdge("a", "b")
				g.AddEdge("b", "a")
				return g
			},
		},
		{
			name: "dangling edge",
			build: func() *StateGraph[testState] {
				g := New[testState]()
				g.AddNode("a", appendName("a"))
				g.SetEntryPoint("a")
				g.AddEdge("a", "ghost")
				return g
			},
		},
		{
			name: "unreachable node",
			build: func() *StateGraph[testState] {
				g := New[testState]()
				g.AddNode("a", appendName("a"))
				g.AddNode("island", appendName("island"))
				g.SetEntryPoint("a")
				g.AddEdge("a", End)
				return g
			},
		},
		{
			name: "node without outgoing edge",
			build: func() *StateGraph[testState] {
				g := New[testState]()
				g.AddNode("a", appendName("a"))
				g.SetEntryPoint("a")
				return g
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.build().Compile(); err == nil {
				t.Error("Compile() succeeded, want error")
			}
		})
	}
}

func TestInvoke_NodeErrorAbortsWalk(t *testing.T) {
	g := New[testState]()
	g.AddNode("ok", appendName("ok"))
	g.AddNode("boom", failNode)
	g.AddNode("after", appendName("after"))
	g.SetEntryPoint("ok")
	g.AddEdge("ok", "boom")
	g.AddEdge("boom", "after")
	g.AddEdge("after", End)

	runner, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	st := &testState{}
	err = runner.Invoke(context.Background(), st)
	if err == nil {
		t.Fatal("Invoke() succeeded, want node error")
	}
	if !reflect.DeepEqual(st.Trace, []string{"ok"}) {
		t.Errorf("Trace = %v, nodes after the failure must not run", st.Trace)
	}
}
