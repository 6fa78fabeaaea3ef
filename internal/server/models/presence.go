package models

// DoneSet is the set of patient IDs currently marked as seen. Order is the
// order in which the client listed them; duplicates are dropped.
type DoneSet []string

// Normalize removes empty and duplicate IDs, keeping first occurrences.
// The result is never nil so it encodes as [] rather than null.
func (d DoneSet) Normalize() DoneSet {
	out := make(DoneSet, 0, len(d))
	seen := make(map[string]struct{}, len(d))
	for _, id := range d {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Presence wire messages shared by the WebSocket and gRPC transports.
const (
	PresenceTypeDoneSet       = "done_set"
	PresenceTypeUpdateDoneSet = "update_done_set"
)

// PresenceMessage is the JSON envelope exchanged with presence clients.
type PresenceMessage struct {
	Type       string  `json:"type"`
	PatientIDs DoneSet `json:"patientIds"`
}
