package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evonet/internal/nn"
)

func node(name string, t NodeType) Node {
	return NewNode(name, t, nn.MustActivation(nn.ActivationReLU), nn.MustIntegration(nn.IntegrationSum))
}

func weight(name string, value float64) Weight {
	w := NewWeight(name, nn.RandomWeightInit(1, 1), nn.SGDSolver(0.01, 0.9))
	w.Value = value
	return w
}

// chainModel builds A(input) -> B(hidden) -> C(output).
func chainModel(t *testing.T) *Model {
	t.Helper()
	m := New("m1", "chain")
	require.NoError(t, m.AddNodes(node("A", NodeTypeInput), node("B", NodeTypeHidden), node("C", NodeTypeOutput)))
	require.NoError(t, m.AddWeights(weight("w_AB", 0.5), weight("w_BC", -0.25)))
	require.NoError(t, m.AddLinks(NewLink("A_to_B", "A", "B", "w_AB"), NewLink("B_to_C", "B", "C", "w_BC")))
	return m
}

func TestAddEntities(t *testing.T) {
	m := chainModel(t)
	assert.Equal(t, 3, m.NodeCount())
	assert.Equal(t, 2, m.LinkCount())
	assert.Equal(t, 2, m.WeightCount())
	assert.Equal(t, []string{"A", "B", "C"}, m.NodeNames())
	assert.Equal(t, []string{"A_to_B", "B_to_C"}, m.LinkNames())
	require.NoError(t, m.CheckIntegrity())

	b, ok := m.Node("B")
	require.True(t, ok)
	assert.Equal(t, NodeStatusInitialized, b.Status)
}

func TestAddDuplicateNamesAreRejectedAtomically(t *testing.T) {
	m := chainModel(t)

	err := m.AddNodes(node("D", NodeTypeHidden), node("B", NodeTypeHidden))
	require.ErrorIs(t, err, ErrDuplicateName)
	_, ok := m.Node("D")
	assert.False(t, ok, "partial insert after duplicate")

	require.ErrorIs(t, m.AddNodes(node("E", NodeTypeHidden), node("E", NodeTypeHidden)), ErrDuplicateName)
	require.ErrorIs(t, m.AddWeights(weight("w_AB", 1)), ErrDuplicateName)
	require.ErrorIs(t, m.AddLinks(NewLink("A_to_B", "A", "C", "w_AB")), ErrDuplicateName)
}

func TestAddLinkRequiresResolvableReferences(t *testing.T) {
	m := chainModel(t)
	require.ErrorIs(t, m.AddLinks(NewLink("X_to_C", "X", "C", "w_AB")), ErrDanglingReference)
	require.ErrorIs(t, m.AddLinks(NewLink("A_to_X", "A", "X", "w_AB")), ErrDanglingReference)
	require.ErrorIs(t, m.AddLinks(NewLink("A_to_C", "A", "C", "missing")), ErrDanglingReference)
	assert.Equal(t, 2, m.LinkCount())
}

func TestAddInvalidEntities(t *testing.T) {
	m := New("m", "m")
	require.ErrorIs(t, m.AddNodes(node("", NodeTypeHidden)), ErrInvalidEntity)
	require.ErrorIs(t, m.AddNodes(node("Q", NodeType("sensor"))), ErrInvalidEntity)
	require.ErrorIs(t, m.AddWeights(weight("", 0)), ErrInvalidEntity)
	require.ErrorIs(t, m.AddLinks(Link{}), ErrInvalidEntity)
}

func TestRemoveIsNoOpWhenAbsent(t *testing.T) {
	m := chainModel(t)
	m.RemoveNode("missing")
	m.RemoveLink("missing")
	m.RemoveWeight("missing")
	assert.Equal(t, 3, m.NodeCount())
	assert.Equal(t, 2, m.LinkCount())
	assert.Equal(t, 2, m.WeightCount())
}

func TestRemoveNodeLeavesDanglingLinksUntilPrune(t *testing.T) {
	m := chainModel(t)
	m.RemoveNode("B")
	require.ErrorIs(t, m.CheckIntegrity(), ErrDanglingReference)

	removed := m.PruneModel(DefaultPruneIterations)
	assert.Equal(t, 4, removed, "two links and two weights")
	require.NoError(t, m.CheckIntegrity())
	assert.Equal(t, []string{"A", "C"}, m.NodeNames())
	assert.Empty(t, m.LinkNames())
	assert.Empty(t, m.WeightNames())
}

func TestUpdateNodeAndWeight(t *testing.T) {
	m := chainModel(t)
	b, _ := m.Node("B")
	b.Activation = nn.MustActivation(nn.ActivationTanH)
	require.NoError(t, m.UpdateNode(b))
	got, _ := m.Node("B")
	assert.Equal(t, nn.ActivationTanH, got.Activation.Name)

	require.ErrorIs(t, m.UpdateNode(node("Z", NodeTypeHidden)), ErrNodeNotFound)
	require.NoError(t, m.SetWeightValue("w_AB", 2))
	w, _ := m.Weight("w_AB")
	assert.Equal(t, 2.0, w.Value)
	require.ErrorIs(t, m.SetWeightValue("missing", 1), ErrWeightNotFound)
	require.ErrorIs(t, m.UpdateWeight(weight("missing", 1)), ErrWeightNotFound)
}

func TestCloneIsIndependent(t *testing.T) {
	m := chainModel(t)
	c := m.Clone()
	c.RemoveLink("A_to_B")
	require.NoError(t, c.SetWeightValue("w_BC", 9))

	assert.Equal(t, 2, m.LinkCount())
	assert.Len(t, m.InputLinks("B"), 1)
	w, _ := m.Weight("w_BC")
	assert.Equal(t, -0.25, w.Value)
	assert.Empty(t, c.InputLinks("B"))
}
