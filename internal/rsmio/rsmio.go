// Package rsmio parses the JSON RSM document of the input format into
// the internal/rsm data model: blank components, then their nodes,
// then their boxes, then their transitions — each pass needs every
// component (or, for boxes, every node) to already exist by name.
package rsmio

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rfielding/rsmcheck/internal/rsm"
)

type document struct {
	InitialComponent string      `json:"initial_component"`
	InitialNode      string      `json:"initial_node"`
	Components       []component `json:"components"`
}

type component struct {
	Name        string       `json:"name"`
	Nodes       []node       `json:"nodes"`
	Boxes       []box        `json:"boxes"`
	Transitions []transition `json:"transitions"`
}

type node struct {
	Name    string   `json:"name"`
	Labels  []string `json:"labels"`
	IsEntry bool     `json:"is_entry"`
	IsExit  bool     `json:"is_exit"`
}

type box struct {
	Name        string   `json:"name"`
	Component   string   `json:"component"`
	CallNodes   []string `json:"call_nodes"`
	ReturnNodes []string `json:"return_nodes"`
}

type transition struct {
	Source  endpoint   `json:"source"`
	Targets []endpoint `json:"targets"`
}

// endpoint names either a plain node ("node") or a box's call/return
// port ("box_node"), matching the two shapes the RSM format allows for
// a transition's source and targets.
type endpoint struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	BoxName  string `json:"box_name"`
	NodeName string `json:"node_name"`
}

// Parse decodes an RSM document and builds a Store from it, with one
// empty-context contextualised component per base component and the
// initial contextualised component/node set. Structural errors from
// the underlying rsm.Component constructors are wrapped with the
// offending component's name.
func Parse(data []byte) (*rsm.Store, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rsmio: invalid RSM document: %w", err)
	}

	store := rsm.NewStore()
	built := make(map[string]*rsm.Component, len(doc.Components))
	for _, c := range doc.Components {
		comp := rsm.NewComponent(c.Name)
		built[c.Name] = comp
		store.AddComponent(comp)
	}

	for _, c := range doc.Components {
		comp := built[c.Name]
		for _, n := range c.Nodes {
			if _, err := comp.AddNode(n.Name, n.Labels, n.IsEntry, n.IsExit); err != nil {
				return nil, fmt.Errorf("rsmio: component %s: %w", c.Name, err)
			}
		}
	}

	for _, c := range doc.Components {
		comp := built[c.Name]
		for _, b := range c.Boxes {
			ref, ok := built[b.Component]
			if !ok {
				return nil, fmt.Errorf("rsmio: component %s: box %s references unknown component %q", c.Name, b.Name, b.Component)
			}
			if _, err := comp.AddBox(b.Name, ref, b.CallNodes, b.ReturnNodes); err != nil {
				return nil, fmt.Errorf("rsmio: component %s: %w", c.Name, err)
			}
		}
	}

	for _, c := range doc.Components {
		comp := built[c.Name]
		for _, t := range c.Transitions {
			if t.Source.Type == "box_node" && len(t.Targets) == 0 {
				continue
			}
			source, err := resolveSource(comp, t.Source)
			if err != nil {
				return nil, fmt.Errorf("rsmio: component %s: %w", c.Name, err)
			}
			for _, te := range t.Targets {
				target, err := resolveTarget(comp, te)
				if err != nil {
					return nil, fmt.Errorf("rsmio: component %s: %w", c.Name, err)
				}
				if err := comp.AddTransition(source, target); err != nil {
					return nil, fmt.Errorf("rsmio: component %s: %w", c.Name, err)
				}
			}
		}
	}

	if err := store.InitializeEmptyContexts(doc.InitialComponent, doc.InitialNode); err != nil {
		return nil, fmt.Errorf("rsmio: %w", err)
	}
	return store, nil
}

func resolveSource(comp *rsm.Component, e endpoint) (*rsm.Node, error) {
	switch e.Type {
	case "node":
		n := comp.NodeByName(e.Name)
		if n == nil {
			return nil, fmt.Errorf("transition source node %q not found", e.Name)
		}
		return n, nil
	case "box_node":
		n := comp.NodeByName(fmt.Sprintf("%s:return:%s", e.BoxName, e.NodeName))
		if n == nil {
			return nil, fmt.Errorf("transition source return-port %s.%s not found", e.BoxName, e.NodeName)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("invalid transition source type %q", e.Type)
	}
}

func resolveTarget(comp *rsm.Component, e endpoint) (*rsm.Node, error) {
	switch e.Type {
	case "node":
		n := comp.NodeByName(e.Name)
		if n == nil {
			return nil, fmt.Errorf("transition target node %q not found", e.Name)
		}
		return n, nil
	case "box_node":
		n := comp.NodeByName(fmt.Sprintf("%s:call:%s", e.BoxName, e.NodeName))
		if n == nil {
			return nil, fmt.Errorf("transition target call-port %s.%s not found", e.BoxName, e.NodeName)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("invalid transition target type %q", e.Type)
	}
}
