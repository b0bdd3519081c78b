package service

import (
	"github.com/tolkvo/callengine/internal/core/domain"
)

// ParticipantRegistry is the engine-owned mapping of live remote video
// tracks, insertion-ordered by first add. Not safe for concurrent use:
// the owning session serializes all mutations through its event loop.
type ParticipantRegistry struct {
	order  []string
	tracks map[string]domain.VideoTrack
}

func NewParticipantRegistry() *ParticipantRegistry {
	return &ParticipantRegistry{tracks: make(map[string]domain.VideoTrack)}
}

// Add upserts a track. A duplicate add for the same trackID replaces the
// entry in place and keeps the original position.
func (r *ParticipantRegistry) Add(participantID, trackID string) {
	if _, ok := r.tracks[trackID]; !ok {
		r.order = append(r.order, trackID)
	}
	r.tracks[trackID] = domain.VideoTrack{TrackID: trackID, ParticipantID: participantID}
}

// Remove deletes a track. Unknown trackIDs are ignored.
func (r *ParticipantRegistry) Remove(trackID string) {
	if _, ok := r.tracks[trackID]; !ok {
		return
	}
	delete(r.tracks, trackID)
	for i, id := range r.order {
		if id == trackID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *ParticipantRegistry) Len() int {
	return len(r.tracks)
}

// Snapshot returns a point-in-time copy in insertion order, safe to
// iterate while the registry keeps mutating.
func (r *ParticipantRegistry) Snapshot() []domain.VideoTrack {
	out := make([]domain.VideoTrack, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tracks[id])
	}
	return out
}
