package storage

import (
	"math/rand"
	"testing"

	"evonet/internal/genotype"
	"evonet/internal/model"
	"evonet/internal/nn"
)

func baselineSnapshot(t *testing.T, id string) model.Snapshot {
	t.Helper()
	m, err := genotype.ConstructBaseline(id, genotype.BaselineSpec{
		NInputs:    2,
		NHidden:    2,
		NOutputs:   1,
		WithBias:   true,
		WeightInit: nn.RandomWeightInit(1, 1),
		Solver:     nn.SGDSolver(0.01, 0.9),
	}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("construct baseline: %v", err)
	}
	return m.Snapshot()
}

func sampleLineage(modelID string) []model.LineageRecord {
	versions := model.VersionedRecord{
		SchemaVersion: model.LineageSchemaVersion,
		CodecVersion:  model.LineageCodecVersion,
	}
	return []model.LineageRecord{
		{VersionedRecord: versions, ModelID: modelID, Generation: "g1", Operation: "add_node", Entities: []string{"FC0_000@add_node#g1-1"}},
		{VersionedRecord: versions, ModelID: modelID, Generation: "g1", Operation: "delete_link", Skipped: true, Reason: "no candidate"},
	}
}
