package storage

import "time"

// ScriptRecord is the unit of storage: a protected script plus its
// metadata. ID and OwnerID are fixed at creation; Body changes only
// through an explicit update; the access fields change only on the
// fetch path. The JSON tags match the on-disk layout the file and
// github backends persist.
type ScriptRecord struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"userId"`
	Body           string     `json:"script"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
	AccessCount    int64      `json:"accessCount"`
	LastAccessedAt *time.Time `json:"lastAccessed,omitempty"`
}

// Clone returns a deep copy of the record. Backends hand out clones so
// callers can never alias internally held state.
func (r *ScriptRecord) Clone() *ScriptRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.UpdatedAt != nil {
		t := *r.UpdatedAt
		out.UpdatedAt = &t
	}
	if r.LastAccessedAt != nil {
		t := *r.LastAccessedAt
		out.LastAccessedAt = &t
	}
	return &out
}
