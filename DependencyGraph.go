package main

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var CircularDependencyError = errors.New("circular dependency")

type nameSet map[string]struct{}

// DependencyGraph is a set of ordered pairs (s, t) meaning "t depends on s":
// s is a dependee of t, t is a dependent of s. Both directions are indexed
// and kept consistent, and no index keeps an empty set.
type DependencyGraph struct {
	dependents map[string]nameSet
	dependees  map[string]nameSet
	size       int
}

// dependentsGetter is the read side needed to compute a recalculation order.
type dependentsGetter interface {
	GetDependents(name string) []string
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		dependents: map[string]nameSet{},
		dependees:  map[string]nameSet{},
	}
}

// Size returns the number of distinct pairs.
func (g *DependencyGraph) Size() int {
	return g.size
}

func (g *DependencyGraph) AddDependency(dependee string, dependent string) {
	if _, ok := g.dependents[dependee][dependent]; ok {
		return
	}

	addToIndex(g.dependents, dependee, dependent)
	addToIndex(g.dependees, dependent, dependee)
	g.size++
}

func (g *DependencyGraph) RemoveDependency(dependee string, dependent string) {
	if _, ok := g.dependents[dependee][dependent]; !ok {
		return
	}

	removeFromIndex(g.dependents, dependee, dependent)
	removeFromIndex(g.dependees, dependent, dependee)
	g.size--
}

// GetDependents returns the sorted names depending on dependee.
func (g *DependencyGraph) GetDependents(dependee string) []string {
	return sortedNames(g.dependents[dependee])
}

// GetDependees returns the sorted names dependent depends on.
func (g *DependencyGraph) GetDependees(dependent string) []string {
	return sortedNames(g.dependees[dependent])
}

func (g *DependencyGraph) HasDependents(dependee string) bool {
	return len(g.dependents[dependee]) > 0
}

func (g *DependencyGraph) HasDependees(dependent string) bool {
	return len(g.dependees[dependent]) > 0
}

// ReplaceDependents replaces every pair (dependee, *) with (dependee, t) for t in newDependents.
func (g *DependencyGraph) ReplaceDependents(dependee string, newDependents []string) {
	toDelete := maps.Clone(g.dependents[dependee])

	for _, dependent := range newDependents {
		if _, ok := toDelete[dependent]; ok {
			// already linked, keep it
			delete(toDelete, dependent)
		} else {
			g.AddDependency(dependee, dependent)
		}
	}

	for dependent := range toDelete {
		g.RemoveDependency(dependee, dependent)
	}
}

// ReplaceDependees replaces every pair (*, dependent) with (s, dependent) for s in newDependees.
func (g *DependencyGraph) ReplaceDependees(dependent string, newDependees []string) {
	toDelete := maps.Clone(g.dependees[dependent])

	for _, dependee := range newDependees {
		if _, ok := toDelete[dependee]; ok {
			delete(toDelete, dependee)
		} else {
			g.AddDependency(dependee, dependent)
		}
	}

	for dependee := range toDelete {
		g.RemoveDependency(dependee, dependent)
	}
}

// GetCellsToRecalculate returns names and everything transitively depending
// on them, ordered so that every dependee comes before its dependents. The
// first of names is the first element. A cycle yields CircularDependencyError.
func (g *DependencyGraph) GetCellsToRecalculate(names ...string) ([]string, error) {
	return cellsToRecalculate(g, names)
}

// WithDependees returns a read-only view of g in which dependent depends on
// exactly newDependees. g itself stays untouched until Commit is called.
func (g *DependencyGraph) WithDependees(dependent string, newDependees []string) *CandidateGraph {
	dependees := make(nameSet, len(newDependees))
	for _, dependee := range newDependees {
		dependees[dependee] = struct{}{}
	}

	return &CandidateGraph{
		base:      g,
		dependent: dependent,
		dependees: dependees,
	}
}

// CandidateGraph overlays a prospective dependee set of a single cell on a
// DependencyGraph.
type CandidateGraph struct {
	base      *DependencyGraph
	dependent string
	dependees nameSet
}

func (c *CandidateGraph) GetDependents(dependee string) []string {
	dependents := c.base.GetDependents(dependee)

	index, found := slices.BinarySearch(dependents, c.dependent)
	_, linked := c.dependees[dependee]

	if found && !linked {
		dependents = slices.Delete(dependents, index, index+1)
	} else if !found && linked {
		dependents = slices.Insert(dependents, index, c.dependent)
	}

	return dependents
}

func (c *CandidateGraph) GetCellsToRecalculate(names ...string) ([]string, error) {
	return cellsToRecalculate(c, names)
}

// Commit writes the candidate dependees into the underlying graph.
func (c *CandidateGraph) Commit() {
	c.base.ReplaceDependees(c.dependent, sortedNames(c.dependees))
}

type visitState uint8

const (
	unvisited visitState = iota
	inProgress
	done
)

func cellsToRecalculate(graph dependentsGetter, names []string) ([]string, error) {
	state := map[string]visitState{}
	postorder := make([]string, 0, len(names))
	path := make([]string, 0)

	var visit func(name string) error
	visit = func(name string) error {
		state[name] = inProgress
		path = append(path, name)

		for _, dependent := range graph.GetDependents(name) {
			switch state[dependent] {
			case inProgress:
				cycle := append(path[slices.Index(path, dependent):], dependent)
				return fmt.Errorf("%w: %s", CircularDependencyError, strings.Join(cycle, " -> "))
			case unvisited:
				if err := visit(dependent); err != nil {
					return err
				}
			}
		}

		path = path[:len(path)-1]
		state[name] = done
		postorder = append(postorder, name)
		return nil
	}

	// reverse iteration puts names[0] first in the reversed postorder
	for i := len(names) - 1; i >= 0; i-- {
		if state[names[i]] == unvisited {
			if err := visit(names[i]); err != nil {
				return nil, err
			}
		}
	}

	slices.Reverse(postorder)
	return postorder, nil
}

func addToIndex(index map[string]nameSet, key string, value string) {
	set, ok := index[key]
	if !ok {
		set = nameSet{}
		index[key] = set
	}
	set[value] = struct{}{}
}

func removeFromIndex(index map[string]nameSet, key string, value string) {
	set, ok := index[key]
	if !ok {
		return
	}

	delete(set, value)
	if len(set) == 0 {
		delete(index, key)
	}
}

func sortedNames(set nameSet) []string {
	return slices.Sorted(maps.Keys(set))
}
