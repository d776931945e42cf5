package rsmio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const callerCalleeDoc = `{
	"initial_component": "M",
	"initial_node": "m0",
	"components": [
		{
			"name": "M",
			"nodes": [
				{"name": "m0", "labels": ["a"], "is_entry": true, "is_exit": false},
				{"name": "m1", "labels": ["b"], "is_entry": false, "is_exit": true}
			],
			"boxes": [
				{"name": "B", "component": "P", "call_nodes": ["p0"], "return_nodes": ["p1"]}
			],
			"transitions": [
				{"source": {"type": "node", "name": "m0"}, "targets": [{"type": "box_node", "box_name": "B", "node_name": "p0"}]},
				{"source": {"type": "box_node", "box_name": "B", "node_name": "p1"}, "targets": [{"type": "node", "name": "m1"}]}
			]
		},
		{
			"name": "P",
			"nodes": [
				{"name": "p0", "labels": ["a"], "is_entry": true, "is_exit": false},
				{"name": "p1", "labels": ["a"], "is_entry": false, "is_exit": true}
			],
			"boxes": [],
			"transitions": [
				{"source": {"type": "node", "name": "p0"}, "targets": [{"type": "node", "name": "p1"}]}
			]
		}
	]
}`

func TestParseCallerCallee(t *testing.T) {
	store, err := Parse([]byte(callerCalleeDoc))
	require.NoError(t, err)

	m := store.Components["M"]
	require.NotNil(t, m)
	p := store.Components["P"]
	require.NotNil(t, p)

	m0 := m.NodeByName("m0")
	require.NotNil(t, m0)
	assert.True(t, m0.IsEntry)
	assert.True(t, m0.HasLabel("a"))

	callPort := m.NodeByName("B:call:p0")
	require.NotNil(t, callPort)
	assert.Contains(t, m.Transitions[m0], callPort)

	returnPort := m.NodeByName("B:return:p1")
	require.NotNil(t, returnPort)
	m1 := m.NodeByName("m1")
	require.NotNil(t, m1)
	assert.Contains(t, m.Transitions[returnPort], m1)

	assert.Equal(t, m, store.Initial.Base)
	assert.Equal(t, m0, store.InitialNode)

	require.Len(t, store.CtxComponents, 2)
}

func TestParseRejectsEntryExitOnSameNode(t *testing.T) {
	doc := `{
		"initial_component": "M",
		"initial_node": "m0",
		"components": [
			{
				"name": "M",
				"nodes": [{"name": "m0", "labels": [], "is_entry": true, "is_exit": true}],
				"boxes": [],
				"transitions": []
			}
		]
	}`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "M")
}

func TestParseRejectsDanglingBoxReference(t *testing.T) {
	doc := `{
		"initial_component": "M",
		"initial_node": "m0",
		"components": [
			{
				"name": "M",
				"nodes": [{"name": "m0", "labels": [], "is_entry": true, "is_exit": false}],
				"boxes": [{"name": "B", "component": "Missing", "call_nodes": [], "return_nodes": []}],
				"transitions": []
			}
		]
	}`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing")
}

func TestParseRejectsTransitionIntoEntryNode(t *testing.T) {
	doc := `{
		"initial_component": "M",
		"initial_node": "m0",
		"components": [
			{
				"name": "M",
				"nodes": [
					{"name": "m0", "labels": [], "is_entry": true, "is_exit": false},
					{"name": "m1", "labels": [], "is_entry": true, "is_exit": false}
				],
				"boxes": [],
				"transitions": [
					{"source": {"type": "node", "name": "m0"}, "targets": [{"type": "node", "name": "m1"}]}
				]
			}
		]
	}`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry node")
}
