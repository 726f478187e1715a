package main

import (
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"slices"
	"testing"
)

func _assertDependsBefore(t *testing.T, order []string, dependee string, dependent string) {
	t.Helper()
	dependeeIndex := slices.Index(order, dependee)
	dependentIndex := slices.Index(order, dependent)

	require.NotEqual(t, -1, dependeeIndex, dependee)
	require.NotEqual(t, -1, dependentIndex, dependent)
	assert.Less(t, dependeeIndex, dependentIndex, "%s should be before %s in %v", dependee, dependent, order)
}

func TestDependencyGraph_AddRemove(t *testing.T) {
	t.Run("empty_graph", func(t *testing.T) {
		graph := NewDependencyGraph()

		assert.Equal(t, 0, graph.Size())
		assert.Empty(t, graph.GetDependents("a"))
		assert.Empty(t, graph.GetDependees("a"))
		assert.False(t, graph.HasDependents("a"))
		assert.False(t, graph.HasDependees("a"))
	})

	t.Run("add_is_idempotent", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.AddDependency("a", "b")
		graph.AddDependency("a", "b")

		assert.Equal(t, 1, graph.Size())
		assert.Equal(t, []string{"b"}, graph.GetDependents("a"))
		assert.Equal(t, []string{"a"}, graph.GetDependees("b"))
		assert.True(t, graph.HasDependents("a"))
		assert.True(t, graph.HasDependees("b"))
		assert.False(t, graph.HasDependees("a"))
	})

	t.Run("add_then_remove_restores", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.AddDependency("x", "y")
		sizeBefore := graph.Size()

		graph.AddDependency("s", "t")
		graph.RemoveDependency("s", "t")

		assert.Equal(t, sizeBefore, graph.Size())
		assert.NotContains(t, graph.GetDependents("s"), "t")
		assert.NotContains(t, graph.GetDependees("t"), "s")
		assert.NotContains(t, graph.dependents, "s")
		assert.NotContains(t, graph.dependees, "t")
	})

	t.Run("remove_is_idempotent", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.AddDependency("a", "b")
		graph.RemoveDependency("a", "b")
		graph.RemoveDependency("a", "b")
		graph.RemoveDependency("unknown", "b")

		assert.Equal(t, 0, graph.Size())
	})

	t.Run("remove_keeps_other_pairs", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.AddDependency("a", "b")
		graph.AddDependency("a", "c")
		graph.AddDependency("d", "b")

		graph.RemoveDependency("a", "b")

		assert.Equal(t, 2, graph.Size())
		assert.Equal(t, []string{"c"}, graph.GetDependents("a"))
		assert.Equal(t, []string{"d"}, graph.GetDependees("b"))
	})

	t.Run("indexes_stay_consistent", func(t *testing.T) {
		graph := NewDependencyGraph()
		for i := 0; i < 50; i++ {
			graph.AddDependency(fmt.Sprintf("s%d", i%7), fmt.Sprintf("t%d", i%11))
		}
		for i := 0; i < 50; i += 3 {
			graph.RemoveDependency(fmt.Sprintf("s%d", i%7), fmt.Sprintf("t%d", i%11))
		}

		pairs := 0
		for dependee, dependents := range graph.dependents {
			for dependent := range dependents {
				pairs++
				assert.Contains(t, graph.GetDependees(dependent), dependee)
			}
		}
		for dependent, dependees := range graph.dependees {
			for dependee := range dependees {
				assert.Contains(t, graph.GetDependents(dependee), dependent)
			}
		}
		assert.Equal(t, pairs, graph.Size())
	})

	t.Run("results_are_sorted", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.AddDependency("a", "z")
		graph.AddDependency("a", "m")
		graph.AddDependency("a", "b")

		assert.Equal(t, []string{"b", "m", "z"}, graph.GetDependents("a"))
	})
}

func TestDependencyGraph_Replace(t *testing.T) {
	t.Run("replace_dependents", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.AddDependency("a", "b")
		graph.AddDependency("a", "c")
		graph.AddDependency("x", "b")

		graph.ReplaceDependents("a", []string{"c", "d", "e"})

		assert.Equal(t, []string{"c", "d", "e"}, graph.GetDependents("a"))
		assert.Equal(t, []string{"x"}, graph.GetDependees("b"))
		assert.Equal(t, []string{"a"}, graph.GetDependees("d"))
		assert.Equal(t, 4, graph.Size())
	})

	t.Run("replace_dependees", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.AddDependency("cell2", "cell1")
		graph.AddDependency("cell3", "cell1")
		graph.AddDependency("cell100", "cell1")

		graph.ReplaceDependees("cell1", []string{"cell5", "cell99", "cell100"})

		assert.Equal(t, []string{"cell100", "cell5", "cell99"}, graph.GetDependees("cell1"))
		assert.Empty(t, graph.GetDependents("cell2"))
		assert.Empty(t, graph.GetDependents("cell3"))
		assert.Equal(t, []string{"cell1"}, graph.GetDependents("cell5"))
		assert.Equal(t, 3, graph.Size())
	})

	t.Run("replace_with_empty", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.AddDependency("a", "b")
		graph.AddDependency("c", "b")

		graph.ReplaceDependees("b", nil)

		assert.Equal(t, 0, graph.Size())
		assert.Empty(t, graph.dependents)
		assert.Empty(t, graph.dependees)
	})

	t.Run("replace_with_duplicates", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.ReplaceDependents("a", []string{"b", "b", "c"})

		assert.Equal(t, 2, graph.Size())
	})

	t.Run("replace_unknown", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.ReplaceDependents("nobody", []string{})
		graph.ReplaceDependees("nobody", []string{})

		assert.Equal(t, 0, graph.Size())
	})
}

func TestDependencyGraph_GetCellsToRecalculate(t *testing.T) {
	t.Run("single_cell", func(t *testing.T) {
		graph := NewDependencyGraph()

		order, err := graph.GetCellsToRecalculate("A1")

		assert.NoError(t, err)
		assert.Equal(t, []string{"A1"}, order)
	})

	t.Run("chain", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.AddDependency("D1", "B1")
		graph.AddDependency("B1", "A1")
		graph.AddDependency("D1", "A1")

		order, err := graph.GetCellsToRecalculate("D1")

		assert.NoError(t, err)
		assert.Equal(t, []string{"D1", "B1", "A1"}, order)
	})

	t.Run("diamond", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.AddDependency("A1", "B1")
		graph.AddDependency("A1", "C1")
		graph.AddDependency("B1", "D1")
		graph.AddDependency("C1", "D1")
		graph.AddDependency("D1", "E1")
		graph.AddDependency("Z1", "E1")

		order, err := graph.GetCellsToRecalculate("A1")

		assert.NoError(t, err)
		assert.Len(t, order, 5)
		assert.Equal(t, "A1", order[0])
		assert.NotContains(t, order, "Z1")
		_assertDependsBefore(t, order, "B1", "D1")
		_assertDependsBefore(t, order, "C1", "D1")
		_assertDependsBefore(t, order, "D1", "E1")
	})

	t.Run("several_names", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.AddDependency("A1", "C1")
		graph.AddDependency("B1", "C1")
		graph.AddDependency("C1", "D1")

		order, err := graph.GetCellsToRecalculate("A1", "B1")

		assert.NoError(t, err)
		assert.Equal(t, "A1", order[0])
		assert.ElementsMatch(t, []string{"A1", "B1", "C1", "D1"}, order)
		_assertDependsBefore(t, order, "B1", "C1")
		_assertDependsBefore(t, order, "C1", "D1")
	})

	t.Run("circular_reference", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.AddDependency("cell20", "cell1")
		graph.AddDependency("cell40", "cell20")
		graph.AddDependency("cell1", "cell40")

		order, err := graph.GetCellsToRecalculate("cell1")

		assert.Nil(t, order)
		assert.ErrorIs(t, err, CircularDependencyError)
		assert.Contains(t, err.Error(), "cell1 -> cell40 -> cell20 -> cell1")
	})

	t.Run("self_reference", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.AddDependency("A1", "A1")

		_, err := graph.GetCellsToRecalculate("A1")

		assert.ErrorIs(t, err, CircularDependencyError)
	})

	t.Run("long_chain", func(t *testing.T) {
		graph := NewDependencyGraph()
		for i := 1; i < 5000; i++ {
			graph.AddDependency(fmt.Sprintf("A%d", i), fmt.Sprintf("A%d", i+1))
		}

		order, err := graph.GetCellsToRecalculate("A1")

		assert.NoError(t, err)
		assert.Len(t, order, 5000)
		assert.Equal(t, "A1", order[0])
		assert.Equal(t, "A5000", order[4999])
	})
}

func TestDependencyGraph_WithDependees(t *testing.T) {
	t.Run("view_does_not_mutate", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.AddDependency("B1", "A1")

		candidate := graph.WithDependees("A1", []string{"C1"})

		assert.Equal(t, []string{"A1"}, candidate.GetDependents("C1"))
		assert.Empty(t, candidate.GetDependents("B1"))

		assert.Equal(t, []string{"A1"}, graph.GetDependents("B1"))
		assert.Empty(t, graph.GetDependents("C1"))
		assert.Equal(t, 1, graph.Size())
	})

	t.Run("view_keeps_other_dependents", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.AddDependency("B1", "A1")
		graph.AddDependency("B1", "Z1")

		candidate := graph.WithDependees("A1", []string{"B1"})

		assert.Equal(t, []string{"A1", "Z1"}, candidate.GetDependents("B1"))
	})

	t.Run("detects_prospective_cycle", func(t *testing.T) {
		graph := NewDependencyGraph()
		// A1 = B1
		graph.AddDependency("B1", "A1")

		// B1 = A1
		candidate := graph.WithDependees("B1", []string{"A1"})
		_, err := candidate.GetCellsToRecalculate("B1")

		assert.ErrorIs(t, err, CircularDependencyError)
		assert.Equal(t, 1, graph.Size())
		assert.Empty(t, graph.GetDependees("B1"))
	})

	t.Run("breaking_a_link_removes_cycle", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.AddDependency("B1", "A1")
		graph.AddDependency("A1", "C1")

		// C1 = A1 becomes C1 = 5
		candidate := graph.WithDependees("C1", nil)
		order, err := candidate.GetCellsToRecalculate("C1")
		assert.NoError(t, err)
		assert.Equal(t, []string{"C1"}, order)
	})

	t.Run("commit", func(t *testing.T) {
		graph := NewDependencyGraph()
		graph.AddDependency("B1", "A1")

		candidate := graph.WithDependees("A1", []string{"C1", "D1"})
		order, err := candidate.GetCellsToRecalculate("A1")
		require.NoError(t, err)
		assert.Equal(t, []string{"A1"}, order)

		candidate.Commit()

		assert.Equal(t, []string{"C1", "D1"}, graph.GetDependees("A1"))
		assert.Empty(t, graph.GetDependents("B1"))
		assert.Equal(t, 2, graph.Size())
	})
}
