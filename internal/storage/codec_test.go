package storage

import (
	"errors"
	"testing"

	"evonet/internal/model"
)

func TestSnapshotCodecRoundTrip(t *testing.T) {
	snapshot := baselineSnapshot(t, "m1")
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m, err := model.FromSnapshot(decoded)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if err := m.CheckIntegrity(); err != nil {
		t.Fatalf("rebuilt model is inconsistent: %v", err)
	}
	if len(decoded.Nodes) != len(snapshot.Nodes) || len(decoded.Links) != len(snapshot.Links) || len(decoded.Weights) != len(snapshot.Weights) {
		t.Fatalf("entity counts changed in round trip: %+v", decoded)
	}
	for i, w := range snapshot.Weights {
		if decoded.Weights[i] != w {
			t.Fatalf("weight %d changed: got=%+v want=%+v", i, decoded.Weights[i], w)
		}
	}
}

func TestSnapshotCodecRejectsVersionMismatch(t *testing.T) {
	snapshot := baselineSnapshot(t, "m1")
	snapshot.CodecVersion++
	if _, err := EncodeSnapshot(snapshot); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
	if _, err := DecodeSnapshot([]byte(`{"schema_version":9,"codec_version":1,"id":"x"}`)); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch on decode, got %v", err)
	}
}

func TestLineageCodecRoundTrip(t *testing.T) {
	records := sampleLineage("m1")
	data, err := EncodeLineage(records)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeLineage(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 2 || decoded[0].Entities[0] != records[0].Entities[0] || !decoded[1].Skipped {
		t.Fatalf("unexpected lineage: %+v", decoded)
	}

	records[0].SchemaVersion = 0
	if _, err := EncodeLineage(records); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}
