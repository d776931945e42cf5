package rsm

import "fmt"

// Component is a finite directed labelled graph describing one
// recursive procedure: a base component in RSM terminology. It is
// immutable once the parser finishes building it.
type Component struct {
	Name string

	Nodes   []*Node // ordinary nodes, in declaration order
	Entries []*Node
	Exits   []*Node
	Boxes   []*Box

	// Transitions maps a source node (ordinary or box-node) to its
	// ordered list of targets. Only nodes that own a transition appear
	// as keys.
	Transitions map[*Node][]*Node

	byName map[string]*Node
}

// NewComponent creates an empty base component ready to be populated by
// a parser.
func NewComponent(name string) *Component {
	return &Component{
		Name:        name,
		Transitions: make(map[*Node][]*Node),
		byName:      make(map[string]*Node),
	}
}

// AddNode creates and registers a plain node.
func (c *Component) AddNode(name string, labels []string, isEntry, isExit bool) (*Node, error) {
	if isEntry && isExit {
		return nil, fmt.Errorf("rsm: node %s.%s cannot be both entry and exit", c.Name, name)
	}
	if _, exists := c.byName[name]; exists {
		return nil, fmt.Errorf("rsm: duplicate node name %s.%s", c.Name, name)
	}
	labelSet := make(map[string]bool, len(labels))
	for _, l := range labels {
		labelSet[l] = true
	}
	n := &Node{Component: c, Name: name, Labels: labelSet, IsEntry: isEntry, IsExit: isExit}
	c.Nodes = append(c.Nodes, n)
	c.byName[name] = n
	if isEntry {
		c.Entries = append(c.Entries, n)
	}
	if isExit {
		c.Exits = append(c.Exits, n)
	}
	return n, nil
}

// AddBox creates a box referencing ref, with box-nodes for the given
// call and return node names (which must name entries/exits of ref).
func (c *Component) AddBox(name string, ref *Component, callNodeNames, returnNodeNames []string) (*Box, error) {
	if _, exists := c.byName[name]; exists {
		return nil, fmt.Errorf("rsm: box name %s.%s collides with an existing node/box", c.Name, name)
	}
	for _, other := range c.Boxes {
		if other.Name == name {
			return nil, fmt.Errorf("rsm: box name %s.%s collides with an existing node/box", c.Name, name)
		}
	}
	b := &Box{Component: c, Name: name, Ref: ref}
	for _, cn := range callNodeNames {
		entry := ref.NodeByName(cn)
		if entry == nil || !entry.IsEntry {
			return nil, fmt.Errorf("rsm: box %s.%s call node %q is not an entry of %s", c.Name, name, cn, ref.Name)
		}
		portName := fmt.Sprintf("%s:call:%s", name, cn)
		port := &Node{Component: c, Name: portName, Box: b, Kind: CallPort, Ref: entry}
		b.CallPorts = append(b.CallPorts, port)
		c.byName[portName] = port
	}
	for _, rn := range returnNodeNames {
		exit := ref.NodeByName(rn)
		if exit == nil || !exit.IsExit {
			return nil, fmt.Errorf("rsm: box %s.%s return node %q is not an exit of %s", c.Name, name, rn, ref.Name)
		}
		portName := fmt.Sprintf("%s:return:%s", name, rn)
		port := &Node{Component: c, Name: portName, Box: b, Kind: ReturnPort, Ref: exit}
		b.ReturnPorts = append(b.ReturnPorts, port)
		c.byName[portName] = port
	}
	c.Boxes = append(c.Boxes, b)
	return b, nil
}

// AddTransition records an edge from source to target, validating the
// side constraints of the data model: the source must not be an exit
// node or a call-port, and the target must not be an entry node or a
// return-port.
func (c *Component) AddTransition(source, target *Node) error {
	if source.IsExit {
		return fmt.Errorf("rsm: transition source %s.%s is an exit node", c.Name, source.Name)
	}
	if source.Box != nil && source.Kind == CallPort {
		return fmt.Errorf("rsm: transition source %s.%s is a call-port", c.Name, source.Name)
	}
	if target.IsEntry {
		return fmt.Errorf("rsm: transition target %s.%s is an entry node", c.Name, target.Name)
	}
	if target.Box != nil && target.Kind == ReturnPort {
		return fmt.Errorf("rsm: transition target %s.%s is a return-port", c.Name, target.Name)
	}
	c.Transitions[source] = append(c.Transitions[source], target)
	return nil
}

// NodeByName looks up any node or box-node of c by its local name.
func (c *Component) NodeByName(name string) *Node {
	return c.byName[name]
}

// AllNodes returns the component's ordinary nodes followed by every
// box's call-ports and return-ports, in declaration order.
func (c *Component) AllNodes() []*Node {
	all := make([]*Node, 0, len(c.Nodes))
	all = append(all, c.Nodes...)
	for _, b := range c.Boxes {
		all = append(all, b.CallPorts...)
		all = append(all, b.ReturnPorts...)
	}
	return all
}

// BoxOf returns the box that owns the given call-port or return-port,
// or nil if n is not a box-node.
func BoxOf(n *Node) *Box {
	return n.Box
}
