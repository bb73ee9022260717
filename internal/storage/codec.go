package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"evonet/internal/model"
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeSnapshot(s model.Snapshot) ([]byte, error) {
	if err := checkSnapshotVersion(s); err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

func DecodeSnapshot(data []byte) (model.Snapshot, error) {
	var snapshot model.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return model.Snapshot{}, err
	}
	if err := checkSnapshotVersion(snapshot); err != nil {
		return model.Snapshot{}, err
	}
	return snapshot, nil
}

func EncodeLineage(records []model.LineageRecord) ([]byte, error) {
	if err := checkLineageVersions(records); err != nil {
		return nil, err
	}
	return json.Marshal(records)
}

func DecodeLineage(data []byte) ([]model.LineageRecord, error) {
	var records []model.LineageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if err := checkLineageVersions(records); err != nil {
		return nil, err
	}
	return records, nil
}

func checkSnapshotVersion(s model.Snapshot) error {
	if s.SchemaVersion != model.SnapshotSchemaVersion || s.CodecVersion != model.SnapshotCodecVersion {
		return fmt.Errorf("%w: snapshot %s has schema=%d codec=%d", ErrVersionMismatch, s.ID, s.SchemaVersion, s.CodecVersion)
	}
	return nil
}

func checkLineageVersions(records []model.LineageRecord) error {
	for _, r := range records {
		if r.SchemaVersion != model.LineageSchemaVersion || r.CodecVersion != model.LineageCodecVersion {
			return fmt.Errorf("%w: lineage %s/%s has schema=%d codec=%d", ErrVersionMismatch, r.ModelID, r.Operation, r.SchemaVersion, r.CodecVersion)
		}
	}
	return nil
}
