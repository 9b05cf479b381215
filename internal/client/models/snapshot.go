package models

// Snapshot is the full content of both collections, tombstones included.
// It is the unit of export, restore and reconcile override.
type Snapshot struct {
	Tasks  []Record `json:"tasks"`
	Habits []Record `json:"habits"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Tasks: CloneAll(s.Tasks), Habits: CloneAll(s.Habits)}
}

// CloneAll deep-copies a slice of records. The result is never nil.
func CloneAll(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
