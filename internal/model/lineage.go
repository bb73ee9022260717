package model

const (
	LineageSchemaVersion = 1
	LineageCodecVersion  = 1
)

// LineageRecord is one applied or skipped modification of a model.
type LineageRecord struct {
	VersionedRecord
	ModelID    string   `json:"model_id"`
	Generation string   `json:"generation"`
	Operation  string   `json:"operation"`
	Entities   []string `json:"entities,omitempty"`
	Skipped    bool     `json:"skipped,omitempty"`
	Reason     string   `json:"reason,omitempty"`
}
