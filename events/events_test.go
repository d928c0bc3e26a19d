package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeConn struct {
	subjects []string
	payloads [][]byte
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func TestNATSPublisherSubject(t *testing.T) {
	conn := &fakeConn{}
	p := &NATSPublisher{conn: conn, prefix: "tournaments", logger: discardLogger()}
	matchID := 12
	p.Publish(context.Background(), Event{Type: MatchCompleted, TournamentID: 4, MatchID: &matchID})

	require.Len(t, conn.subjects, 1)
	assert.Equal(t, "tournaments.4.MATCH_COMPLETED", conn.subjects[0])

	var decoded Event
	require.NoError(t, json.Unmarshal(conn.payloads[0], &decoded))
	assert.Equal(t, 12, *decoded.MatchID)
}

func TestMultiAndRecorder(t *testing.T) {
	first, second := &Recorder{}, &Recorder{}
	Multi{first, Noop{}, second}.Publish(context.Background(), Event{Type: StageActivated, TournamentID: 1})
	assert.Equal(t, []Type{StageActivated}, first.Types())
	assert.Equal(t, []Type{StageActivated}, second.Types())
}

func TestHubDeliversToRoomOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(discardLogger())
	go hub.Run(ctx)

	inRoom := NewClient(hub, nil, RoomForTournament(1))
	elsewhere := NewClient(hub, nil, RoomForTournament(2))
	hub.Register <- inRoom
	hub.Register <- elsewhere
	require.Eventually(t, func() bool {
		return hub.ClientCount(RoomForTournament(1)) == 1 && hub.ClientCount(RoomForTournament(2)) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Publish(ctx, Event{Type: MatchStarted, TournamentID: 1})

	select {
	case msg := <-inRoom.Send:
		var e Event
		require.NoError(t, json.Unmarshal(msg, &e))
		assert.Equal(t, MatchStarted, e.Type)
	case <-time.After(time.Second):
		t.Fatal("room client got nothing")
	}
	assert.Empty(t, elsewhere.Send)

	hub.Unregister <- inRoom
	require.Eventually(t, func() bool { return hub.ClientCount(RoomForTournament(1)) == 0 }, time.Second, 10*time.Millisecond)
	_, open := <-inRoom.Send
	assert.False(t, open)
}
