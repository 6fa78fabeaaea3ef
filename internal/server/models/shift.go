package models

import "time"

// Shift is a dated work session with an ordered visit queue.
type Shift struct {
	ID        string       `json:"id"`
	StartTime time.Time    `json:"startTime"`
	EndTime   *time.Time   `json:"endTime,omitempty"`
	ShiftDate string       `json:"shiftDate"`
	Queue     []QueueEntry `json:"queue"`
}

// IsClosed reports whether the shift has been ended.
func (s *Shift) IsClosed() bool {
	return s.EndTime != nil
}

// HasPatient reports whether patientID is already queued.
func (s *Shift) HasPatient(patientID string) bool {
	for _, e := range s.Queue {
		if e.PatientID == patientID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy; the expanded Patient pointers are shared.
func (s *Shift) Clone() *Shift {
	c := *s
	if s.EndTime != nil {
		end := *s.EndTime
		c.EndTime = &end
	}
	c.Queue = append([]QueueEntry(nil), s.Queue...)
	if c.Queue == nil {
		c.Queue = []QueueEntry{}
	}
	return &c
}

// QueueEntry is one patient's place in a shift's visit order. Patient is
// filled on read when the referenced record still exists.
type QueueEntry struct {
	SequenceNo int      `json:"sequenceNo"`
	PatientID  string   `json:"patientId"`
	Patient    *Patient `json:"patient"`
}
