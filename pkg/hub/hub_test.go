package hub

import (
	"testing"
	"time"
)

func recvFrame(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case b := <-c.Send:
		return b
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for frame")
		return nil
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case b, ok := <-c.Send:
		if ok {
			t.Fatalf("unexpected frame: %s", b)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastReachesEveryRoomMemberOnce(t *testing.T) {
	h := New(nil)
	go h.Run()

	sender := NewClient(nil, 1, false, true)
	peer := NewClient(nil, 2, true, true)
	outsider := NewClient(nil, 3, false, true)

	h.Join(sender, 7)
	h.Join(peer, 7)
	h.Join(outsider, 8)

	payload := Frame(EventNewMessage, map[string]any{"id": 1, "message": "hola"})
	h.Broadcast(7, payload)

	for _, c := range []*Client{sender, peer} {
		got := recvFrame(t, c)
		if string(got) != string(payload) {
			t.Fatalf("frame mismatch: %s", got)
		}
	}
	// exactly once each, and never across conversations
	assertNoFrame(t, sender)
	assertNoFrame(t, peer)
	assertNoFrame(t, outsider)
}

func TestLeaveStopsDelivery(t *testing.T) {
	h := New(nil)
	go h.Run()

	c := NewClient(nil, 1, false, true)
	h.Join(c, 3)
	h.Leave(c, 3)
	h.Broadcast(3, Frame(EventMessageDeleted, 42))
	assertNoFrame(t, c)
}

func TestUnregisterRemovesFromAllRoomsAndClosesQueue(t *testing.T) {
	h := New(nil)
	go h.Run()

	c := NewClient(nil, 1, false, true)
	h.Join(c, 1)
	h.Join(c, 2)
	h.Unregister(c)

	h.Broadcast(1, Frame(EventMessageDeleted, 1))
	h.Broadcast(2, Frame(EventMessageDeleted, 2))

	select {
	case _, ok := <-c.Send:
		if ok {
			t.Fatalf("expected closed send queue, got frame")
		}
	case <-time.After(time.Second):
		t.Fatalf("send queue not closed after unregister")
	}
}

func TestSlowConsumerIsDropped(t *testing.T) {
	h := New(nil)
	go h.Run()

	slow := NewClient(nil, 1, false, true)
	fast := NewClient(nil, 2, false, true)
	h.Join(slow, 5)
	h.Join(fast, 5)

	// fill the slow client's queue while keeping the fast one drained
	payload := Frame(EventNewMessage, "x")
	for i := 0; i < cap(slow.Send)+1; i++ {
		h.Broadcast(5, payload)
		select {
		case <-fast.Send:
		case <-time.After(time.Second):
			t.Fatalf("fast client starved at frame %d", i)
		}
	}

	h.Broadcast(5, payload)
	if string(recvFrame(t, fast)) != string(payload) {
		t.Fatalf("fast client must keep receiving after slow peer dropped")
	}
}

func TestSlowConsumerEvictedFromEveryRoom(t *testing.T) {
	h := New(nil)
	go h.Run()

	slow := NewClient(nil, 1, false, true)
	peer := NewClient(nil, 2, false, true)
	h.Join(slow, 1)
	h.Join(slow, 2)
	h.Join(peer, 2)

	// overflow the slow client via its first room
	payload := Frame(EventNewMessage, "x")
	for i := 0; i < cap(slow.Send)+1; i++ {
		h.Broadcast(1, payload)
	}

	// the drop must have removed it from the second room as well; delivery
	// there keeps working and never touches the closed queue
	h.Broadcast(2, payload)
	if string(recvFrame(t, peer)) != string(payload) {
		t.Fatalf("second room broken after slow peer dropped")
	}

	drained := 0
	for {
		select {
		case _, ok := <-slow.Send:
			if !ok {
				return
			}
			drained++
		case <-time.After(time.Second):
			t.Fatalf("slow client queue not closed after drop (drained %d)", drained)
		}
	}
}

func TestSendErrorAfterDropIsNoOp(t *testing.T) {
	c := NewClient(nil, 1, false, true)
	c.closeSend()
	c.SendError("too slow") // must not panic on the closed queue
}

func TestConversationLockIsExclusive(t *testing.T) {
	h := New(nil)

	release := h.LockConversation(5)
	entered := make(chan struct{})
	go func() {
		unlock := h.LockConversation(5)
		close(entered)
		unlock()
	}()

	select {
	case <-entered:
		t.Fatalf("second locker entered while the conversation was held")
	case <-time.After(100 * time.Millisecond):
	}

	// a different conversation must not contend
	unlockOther := h.LockConversation(6)
	unlockOther()

	release()
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatalf("second locker never entered after release")
	}
}

func TestFrameEnvelope(t *testing.T) {
	b := Frame(EventMessageEdited, map[string]any{"messageId": 9, "message": "fixed"})
	want := `{"event":"messageEdited","data":{"message":"fixed","messageId":9}}`
	if string(b) != want {
		t.Fatalf("frame = %s, want %s", b, want)
	}
}

func TestChannelNameRoundTrip(t *testing.T) {
	id, ok := conversationFromChannel(channelName(42))
	if !ok || id != 42 {
		t.Fatalf("round trip failed: %d %v", id, ok)
	}
	if _, ok := conversationFromChannel("other.42"); ok {
		t.Fatalf("foreign channel must not parse")
	}
}
