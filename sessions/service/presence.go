package service

import (
	"context"
	"sort"
	"time"

	"github.com/livekit/protocol/livekit"
	"github.com/samber/lo"

	"github.com/imtaco/rtc-room-client/internal/constants"
	"github.com/imtaco/rtc-room-client/internal/errors"
	"github.com/imtaco/rtc-room-client/sessions"
)

func (s *serviceImpl) Presence(ctx context.Context, id string) (*sessions.Presence, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	infos, err := s.roomParticipants(ctx, sess.RoomName)
	if err != nil {
		return nil, err
	}

	speaking := s.speakers.speaking(sess.RoomName, s.clock.Now())
	active := lo.Filter(infos, func(p *livekit.ParticipantInfo, _ int) bool {
		return p.GetState() != livekit.ParticipantInfo_DISCONNECTED
	})
	participants := lo.Map(active, func(p *livekit.ParticipantInfo, _ int) sessions.Participant {
		_, isSpeaking := speaking[p.GetIdentity()]
		return toParticipant(p, sess.Identity, isSpeaking)
	})
	// local participant first, then by join time
	sort.SliceStable(participants, func(i, j int) bool {
		if participants[i].IsLocal != participants[j].IsLocal {
			return participants[i].IsLocal
		}
		return participants[i].JoinedAt.Before(participants[j].JoinedAt)
	})

	connState := sess.ConnectionState()
	return &sessions.Presence{
		SessionID:       sess.ID,
		Room:            sess.RoomName,
		ConnectionState: connState,
		Participants:    participants,
		Count:           len(participants),
		WaitingForAgent: connState == constants.ConnectionStateConnected && len(participants) < 2,
	}, nil
}

func toParticipant(p *livekit.ParticipantInfo, localIdentity string, isSpeaking bool) sessions.Participant {
	var joinedAt time.Time
	if p.GetJoinedAt() > 0 {
		joinedAt = time.Unix(p.GetJoinedAt(), 0)
	}
	return sessions.Participant{
		SID:               p.GetSid(),
		Identity:          p.GetIdentity(),
		Name:              p.GetName(),
		DisplayName:       lo.Ternary(p.GetName() != "", p.GetName(), p.GetIdentity()),
		IsLocal:           p.GetIdentity() == localIdentity,
		IsSpeaking:        isSpeaking,
		MicrophoneEnabled: microphoneEnabled(p),
		JoinedAt:          joinedAt,
	}
}

func microphoneEnabled(p *livekit.ParticipantInfo) bool {
	return lo.ContainsBy(p.GetTracks(), func(t *livekit.TrackInfo) bool {
		return t.GetType() == livekit.TrackType_AUDIO && !t.GetMuted()
	})
}

// roomParticipants serves from a short lived cache, concurrent misses for the
// same room share one provider call.
func (s *serviceImpl) roomParticipants(ctx context.Context, room string) ([]*livekit.ParticipantInfo, error) {
	if s.presenceCache != nil {
		if infos, ok := s.presenceCache.Get(room); ok {
			return infos, nil
		}
	}

	ch := s.presenceGroup.DoChan(room, func() (any, error) {
		presenceLookups.Add(s.ctx, 1)
		infos, err := s.rooms.ListParticipants(s.ctx, room)
		if err != nil {
			presenceFailed.Add(s.ctx, 1)
			return nil, err
		}
		if s.presenceCache != nil {
			s.presenceCache.Add(room, infos)
		}
		return infos, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]*livekit.ParticipantInfo), nil //nolint:forcetypeassert
	}
}

func (s *serviceImpl) invalidatePresence(room string) {
	if s.presenceCache != nil {
		s.presenceCache.Remove(room)
	}
}

// ReportSpeakers records the active speakers seen by the browser SDK.
func (s *serviceImpl) ReportSpeakers(ctx context.Context, id string, identities []string) error {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess.State != constants.SessionStateConnected {
		return errors.Newf(sessions.ErrInvalidState, "cannot report speakers while %s", sess.State)
	}
	s.speakers.report(sess.RoomName, identities, s.clock.Now())
	s.hub.publish(id, sessions.Event{
		Type: sessions.EventPresenceChanged,
		TS:   s.clock.Now(),
	})
	return nil
}
