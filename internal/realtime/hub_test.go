package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveOne(t *testing.T, s *Session) Message {
	t.Helper()
	select {
	case msg := <-s.Receive():
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestPublishReachesAllSessionsOfIdentity(t *testing.T) {
	hub := NewHub()
	phone := NewSession(nil)
	laptop := NewSession(nil)
	hub.Join(7, phone)
	hub.Join(7, laptop)

	hub.Publish(7, Message{Kind: "new_story", ActorID: 3})

	for _, s := range []*Session{phone, laptop} {
		msg := receiveOne(t, s)
		assert.Equal(t, "new_story", msg.Kind)
		assert.Equal(t, uint(3), msg.ActorID)
	}
}

func TestPublishToOfflineIdentityIsSilentNoop(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		hub.Publish(42, Message{Kind: "new_story"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish to offline identity blocked")
	}
}

func TestPublishDoesNotReachOtherIdentities(t *testing.T) {
	hub := NewHub()
	mine := NewSession(nil)
	theirs := NewSession(nil)
	hub.Join(1, mine)
	hub.Join(2, theirs)

	hub.Publish(1, Message{Kind: "story_view"})

	receiveOne(t, mine)
	select {
	case <-theirs.Receive():
		t.Fatal("message leaked to another identity")
	default:
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	hub := NewHub()
	s := NewSession(nil)
	hub.Join(5, s)
	hub.Join(5, s)

	assert.Equal(t, 1, hub.SessionCount(5))
}

func TestLeaveRemovesSessionAndPresence(t *testing.T) {
	hub := NewHub()
	phone := NewSession(nil)
	laptop := NewSession(nil)
	hub.Join(9, phone)
	hub.Join(9, laptop)

	hub.Leave(phone)
	require.True(t, hub.IsOnline(9))
	assert.Equal(t, 1, hub.SessionCount(9))

	hub.Leave(laptop)
	assert.False(t, hub.IsOnline(9))
	assert.Equal(t, 0, hub.SessionCount(9))

	// Leaving again is harmless.
	hub.Leave(laptop)
}

func TestPublishNeverBlocksOnFullBuffer(t *testing.T) {
	hub := NewHub()
	s := NewSession(nil)
	hub.Join(1, s)

	done := make(chan struct{})
	go func() {
		// Nobody drains the session; overflow must be dropped.
		for i := 0; i < sendBuffer*3; i++ {
			hub.Publish(1, Message{Kind: "new_story"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full session buffer")
	}
}

func TestClosedSessionDropsMessages(t *testing.T) {
	hub := NewHub()
	s := NewSession(nil)
	hub.Join(4, s)
	s.Close()

	// Must not panic.
	hub.Publish(4, Message{Kind: "follow"})
}

func TestConcurrentChurn(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			s := NewSession(nil)
			hub.Join(userID%10, s)
			hub.Publish(userID%10, Message{Kind: "new_story"})
			hub.Leave(s)
		}(uint(i))
	}
	wg.Wait()

	for id := uint(0); id < 10; id++ {
		assert.False(t, hub.IsOnline(id))
	}
}
