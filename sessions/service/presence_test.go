package service

import (
	"context"
	"sync"
	"time"

	"github.com/livekit/protocol/livekit"
	"github.com/pkg/errors"
	"go.uber.org/mock/gomock"

	"github.com/imtaco/rtc-room-client/internal/constants"
	"github.com/imtaco/rtc-room-client/sessions"
)

func audioTrack(muted bool) *livekit.TrackInfo {
	return &livekit.TrackInfo{Type: livekit.TrackType_AUDIO, Muted: muted}
}

func (s *SessionServiceTestSuite) roomInfos() []*livekit.ParticipantInfo {
	return []*livekit.ParticipantInfo{
		{
			Sid:      "PA_agent",
			Identity: "agent-1",
			Name:     "Voice Agent",
			State:    livekit.ParticipantInfo_ACTIVE,
			JoinedAt: 100,
			Tracks:   []*livekit.TrackInfo{audioTrack(false)},
		},
		{
			Sid:      "PA_local",
			Identity: "web-user-s1",
			State:    livekit.ParticipantInfo_ACTIVE,
			JoinedAt: 200,
			Tracks:   []*livekit.TrackInfo{audioTrack(true), {Type: livekit.TrackType_VIDEO}},
		},
		{
			Sid:      "PA_gone",
			Identity: "left-already",
			State:    livekit.ParticipantInfo_DISCONNECTED,
		},
	}
}

func (s *SessionServiceTestSuite) TestPresence() {
	s.putSession("s1", constants.SessionStateConnected)
	s.rooms.EXPECT().ListParticipants(gomock.Any(), "room-s1").Return(s.roomInfos(), nil)

	p, err := s.svc.Presence(s.ctx, "s1")
	s.Require().NoError(err)
	s.Equal("s1", p.SessionID)
	s.Equal("room-s1", p.Room)
	s.Equal(constants.ConnectionStateConnected, p.ConnectionState)
	s.Equal(2, p.Count)
	s.False(p.WaitingForAgent)

	s.Require().Len(p.Participants, 2)
	local, agent := p.Participants[0], p.Participants[1]

	s.True(local.IsLocal)
	s.Equal("web-user-s1", local.DisplayName, "display name falls back to identity")
	s.False(local.MicrophoneEnabled, "muted audio")
	s.Equal("PA_local", local.SID)

	s.False(agent.IsLocal)
	s.Equal("Voice Agent", agent.DisplayName)
	s.True(agent.MicrophoneEnabled)
	s.True(time.Unix(100, 0).Equal(agent.JoinedAt))
	s.False(agent.IsSpeaking)
}

func (s *SessionServiceTestSuite) TestPresence_WaitingForAgent() {
	s.putSession("s1", constants.SessionStateConnected)
	s.rooms.EXPECT().ListParticipants(gomock.Any(), "room-s1").Return(s.roomInfos()[1:2], nil)

	p, err := s.svc.Presence(s.ctx, "s1")
	s.Require().NoError(err)
	s.Equal(1, p.Count)
	s.True(p.WaitingForAgent)
}

func (s *SessionServiceTestSuite) TestPresence_NotConnected() {
	s.putSession("s1", constants.SessionStateIdle)
	s.rooms.EXPECT().ListParticipants(gomock.Any(), "room-s1").Return([]*livekit.ParticipantInfo{}, nil)

	p, err := s.svc.Presence(s.ctx, "s1")
	s.Require().NoError(err)
	s.Equal(constants.ConnectionStateDisconnected, p.ConnectionState)
	s.Equal(0, p.Count)
	s.Empty(p.Participants)
	s.False(p.WaitingForAgent)
}

func (s *SessionServiceTestSuite) TestPresence_ProviderError() {
	s.putSession("s1", constants.SessionStateConnected)
	s.rooms.EXPECT().ListParticipants(gomock.Any(), "room-s1").Return(nil, errors.New("twirp unavailable"))

	_, err := s.svc.Presence(s.ctx, "s1")
	s.Error(err)

	_, err = s.svc.Presence(s.ctx, "missing")
	s.ErrorIs(err, sessions.ErrSessionNotFound)
}

func (s *SessionServiceTestSuite) TestPresence_CachedUntilRoomEvent() {
	s.putSession("s1", constants.SessionStateConnected)
	s.rooms.EXPECT().ListParticipants(gomock.Any(), "room-s1").Return(s.roomInfos(), nil).Times(2)

	for i := 0; i < 3; i++ {
		_, err := s.svc.Presence(s.ctx, "s1")
		s.Require().NoError(err)
	}

	s.Require().NoError(s.svc.HandleWebhook(s.ctx, &livekit.WebhookEvent{
		Event:       string(constants.WebhookTrackPublished),
		Room:        &livekit.Room{Name: "room-s1"},
		Participant: &livekit.ParticipantInfo{Identity: "agent-1"},
	}))

	_, err := s.svc.Presence(s.ctx, "s1")
	s.Require().NoError(err)
}

func (s *SessionServiceTestSuite) TestPresence_ConcurrentLookupsCoalesced() {
	s.putSession("s1", constants.SessionStateConnected)

	release := make(chan struct{})
	s.rooms.EXPECT().ListParticipants(gomock.Any(), "room-s1").
		DoAndReturn(func(context.Context, string) ([]*livekit.ParticipantInfo, error) {
			<-release
			return s.roomInfos(), nil
		}).Times(1)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := s.svc.Presence(s.ctx, "s1")
			s.NoError(err)
			s.Equal(2, p.Count)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
}

func (s *SessionServiceTestSuite) TestReportSpeakers() {
	s.putSession("s1", constants.SessionStateConnected)
	s.rooms.EXPECT().ListParticipants(gomock.Any(), "room-s1").Return(s.roomInfos(), nil)

	s.Require().NoError(s.svc.ReportSpeakers(s.ctx, "s1", []string{"agent-1"}))

	p, err := s.svc.Presence(s.ctx, "s1")
	s.Require().NoError(err)
	s.True(p.Participants[1].IsSpeaking)
	s.False(p.Participants[0].IsSpeaking)

	// reports go stale
	s.clock.Advance(s.cfg.SpeakerTTL + time.Second)
	p, err = s.svc.Presence(s.ctx, "s1")
	s.Require().NoError(err)
	s.False(p.Participants[1].IsSpeaking)
}

func (s *SessionServiceTestSuite) TestReportSpeakers_NotConnected() {
	s.putSession("s1", constants.SessionStateReady)
	s.ErrorIs(s.svc.ReportSpeakers(s.ctx, "s1", []string{"agent-1"}), sessions.ErrInvalidState)
}

func (s *SessionServiceTestSuite) TestReportSpeakers_KeptWhileRoomHasConnected() {
	a := s.putSession("a", constants.SessionStateConnected)
	b := s.putSession("b", constants.SessionStateConnected)
	b.RoomName = a.RoomName
	s.Require().NoError(s.store.Put(s.ctx, b))

	s.Require().NoError(s.svc.ReportSpeakers(s.ctx, "b", []string{"agent-1"}))

	s.expectMint(1)
	_, err := s.svc.Disconnect(s.ctx, "a", constants.DisconnectReasonClient)
	s.Require().NoError(err)
	s.waitBackground()
	s.Contains(s.svc.speakers.speaking(a.RoomName, s.clock.Now()), "agent-1")

	s.expectMint(1)
	_, err = s.svc.Disconnect(s.ctx, "b", constants.DisconnectReasonClient)
	s.Require().NoError(err)
	s.waitBackground()
	s.Empty(s.svc.speakers.speaking(a.RoomName, s.clock.Now()))
}
