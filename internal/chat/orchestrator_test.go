package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diogo/megamente/internal/api"
	apierrors "github.com/diogo/megamente/internal/errors"
	"github.com/diogo/megamente/internal/history"
	"github.com/diogo/megamente/internal/kv"
	"github.com/diogo/megamente/internal/models"
)

func newTestOrchestrator(t *testing.T, gw api.Gateway) (*Orchestrator, *history.Store) {
	t.Helper()
	store := history.NewStore(nil, nil)
	return New(store, gw), store
}

// drain runs fn with a fresh events channel and collects everything sent on it
func drain(fn func(chan<- Event)) []Event {
	ch := make(chan Event)
	go fn(ch)
	var out []Event
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func TestSend_NewSessionText(t *testing.T) {
	gw := &api.MockGateway{Fragments: []string{"Oi! ", "Tudo bem?"}}
	o, _ := newTestOrchestrator(t, gw)

	events := drain(func(ch chan<- Event) {
		if err := o.Send(context.Background(), "Olá", ch); err != nil {
			t.Errorf("Send failed: %v", err)
		}
	})

	st := o.State()
	if len(st.Sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(st.Sessions))
	}
	sess, ok := st.ActiveSession()
	if !ok {
		t.Fatal("new session should be active")
	}
	if sess.Title != "Olá" {
		t.Errorf("Title = %q", sess.Title)
	}
	if len(sess.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(sess.Messages))
	}
	if sess.Messages[0].Role != models.RoleUser || sess.Messages[0].Content != "Olá" {
		t.Errorf("unexpected user message %+v", sess.Messages[0])
	}
	if sess.Messages[1].Content != "Oi! Tudo bem?" {
		t.Errorf("reply = %q", sess.Messages[1].Content)
	}
	if st.Busy || st.Phase != PhaseSettledOK {
		t.Errorf("busy=%v phase=%s after settle", st.Busy, st.Phase)
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[2].Type != EventSettled || events[2].Err != nil {
		t.Errorf("last event = %+v", events[2])
	}
}

func TestSend_StreamingPrefixes(t *testing.T) {
	gate := make(chan struct{})
	gw := &api.MockGateway{Fragments: []string{"Ol", "á! ", "Tudo bem?"}, Gate: gate}
	o, store := newTestOrchestrator(t, gw)

	turn, err := o.Begin("Oi")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	events := make(chan Event)
	go o.Run(context.Background(), turn, events)

	placeholder := func() models.Message {
		sess, _ := store.Get(turn.SessionID)
		return sess.Messages[sess.FindMessage(turn.Placeholder.ID)]
	}

	for _, want := range []string{"Ol", "Olá! ", "Olá! Tudo bem?"} {
		gate <- struct{}{}
		ev := <-events
		if ev.Type != EventFragment || ev.Content != want {
			t.Fatalf("event = %+v, want fragment %q", ev, want)
		}
		if got := placeholder().Content; got != want {
			t.Errorf("stored content = %q, want %q", got, want)
		}
		if !o.Busy() || o.State().Phase != PhaseStreamingText {
			t.Error("orchestrator should be streaming")
		}
	}

	if ev := <-events; ev.Type != EventSettled {
		t.Errorf("expected settled, got %s", ev.Type)
	}
	if _, open := <-events; open {
		t.Error("events channel should be closed")
	}
	if placeholder().ID != turn.Placeholder.ID {
		t.Error("placeholder id changed")
	}
}

func TestSend_ExistingSessionAppendsTwo(t *testing.T) {
	gw := &api.MockGateway{Fragments: []string{"primeira"}}
	o, store := newTestOrchestrator(t, gw)

	if err := o.Send(context.Background(), "um", nil); err != nil {
		t.Fatal(err)
	}
	id := o.ActiveID()
	before, _ := store.Get(id)

	turn, err := o.Begin("dois")
	if err != nil {
		t.Fatal(err)
	}
	mid, _ := store.Get(id)
	if len(mid.Messages) != len(before.Messages)+2 {
		t.Fatalf("expected %d messages before reply, got %d", len(before.Messages)+2, len(mid.Messages))
	}
	if !mid.Messages[len(mid.Messages)-1].IsPlaceholder() {
		t.Error("last message should be the empty placeholder")
	}

	o.Run(context.Background(), turn, nil)

	after, _ := store.Get(id)
	if len(after.Messages) != len(before.Messages)+2 {
		t.Errorf("expected %d messages after settle, got %d", len(before.Messages)+2, len(after.Messages))
	}
	if o.State().Sessions[0].ID != id || store.Len() != 1 {
		t.Error("second send must reuse the active session")
	}
}

func TestSend_HistoryExcludesNewMessages(t *testing.T) {
	gw := &api.MockGateway{Fragments: []string{"ok"}}
	o, _ := newTestOrchestrator(t, gw)

	if err := o.Send(context.Background(), "primeira", nil); err != nil {
		t.Fatal(err)
	}
	if len(gw.LastHistory) != 0 {
		t.Errorf("first send history = %d messages, want 0", len(gw.LastHistory))
	}

	if err := o.Send(context.Background(), "segunda", nil); err != nil {
		t.Fatal(err)
	}
	if len(gw.LastHistory) != 2 {
		t.Fatalf("second send history = %d messages, want 2", len(gw.LastHistory))
	}
	if gw.LastHistory[0].Content != "primeira" || gw.LastHistory[1].Content != "ok" {
		t.Errorf("unexpected history %+v", gw.LastHistory)
	}
	if gw.LastInput != "segunda" {
		t.Errorf("input = %q", gw.LastInput)
	}
}

func TestSend_Image(t *testing.T) {
	gw := &api.MockGateway{Image: &api.ImageResult{ImageURL: "data:image/png;base64,AA==", Caption: "Pronto"}}
	o, _ := newTestOrchestrator(t, gw)

	events := drain(func(ch chan<- Event) {
		_ = o.Send(context.Background(), "Gere uma imagem de um gato", ch)
	})

	sess, _ := o.State().ActiveSession()
	reply := sess.Messages[1]
	if reply.Kind != models.KindImage {
		t.Errorf("Kind = %s, want image", reply.Kind)
	}
	if reply.Content != "Pronto" || reply.ImageURL != "data:image/png;base64,AA==" {
		t.Errorf("unexpected reply %+v", reply)
	}
	if gw.LastPrompt != "Gere uma imagem de um gato" {
		t.Errorf("prompt = %q", gw.LastPrompt)
	}
	if s, i := gw.Calls(); s != 0 || i != 1 {
		t.Errorf("calls stream=%d image=%d", s, i)
	}
	if len(events) != 2 || events[0].Type != EventImage || events[1].Type != EventSettled {
		t.Errorf("unexpected events %+v", events)
	}
}

func TestSend_ImagePhase(t *testing.T) {
	gate := make(chan struct{})
	gw := &api.MockGateway{Gate: gate}
	o, _ := newTestOrchestrator(t, gw)

	done := make(chan struct{})
	go func() {
		_ = o.Send(context.Background(), "desenhe um barco", nil)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for o.State().Phase != PhaseGeneratingImage {
		select {
		case <-deadline:
			t.Fatal("never reached generating-image")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	sess, _ := o.State().ActiveSession()
	if last, _ := sess.LastMessage(); !last.IsPlaceholder() || last.Kind != models.KindImage {
		t.Errorf("expected pending image placeholder, got %+v", last)
	}

	gate <- struct{}{}
	<-done

	sess, _ = o.State().ActiveSession()
	last, _ := sess.LastMessage()
	if last.Content != api.FallbackCaption || last.HasImage() {
		t.Errorf("empty image result should keep the fallback caption, got %+v", last)
	}
	if o.State().Phase != PhaseSettledOK {
		t.Errorf("phase = %s", o.State().Phase)
	}
}

func TestSend_Failures(t *testing.T) {
	boom := errors.New("neural link down")
	tests := []struct {
		name  string
		input string
		gw    *api.MockGateway
	}{
		{"text stream error", "Oi", &api.MockGateway{Fragments: []string{"parcial"}, StreamErr: boom}},
		{"image error", "crie uma imagem de um dragão", &api.MockGateway{ImageErr: boom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, _ := newTestOrchestrator(t, tt.gw)

			events := drain(func(ch chan<- Event) {
				_ = o.Send(context.Background(), tt.input, ch)
			})

			sess, _ := o.State().ActiveSession()
			reply := sess.Messages[1]
			if reply.Content != ErrorMessage {
				t.Errorf("Content = %q", reply.Content)
			}
			if reply.Kind != models.KindText || reply.HasImage() {
				t.Errorf("failed reply must be plain text, got %+v", reply)
			}

			st := o.State()
			if st.Busy || st.Phase != PhaseSettledError || !errors.Is(st.LastError, boom) {
				t.Errorf("unexpected state busy=%v phase=%s err=%v", st.Busy, st.Phase, st.LastError)
			}
			last := events[len(events)-1]
			if last.Type != EventSettled || !errors.Is(last.Err, boom) {
				t.Errorf("settled event = %+v", last)
			}
		})
	}
}

func TestBegin_Rejects(t *testing.T) {
	o, store := newTestOrchestrator(t, &api.MockGateway{})

	for _, input := range []string{"", "   ", "\n\t"} {
		if _, err := o.Begin(input); !errors.Is(err, apierrors.ErrEmptyInput) {
			t.Errorf("Begin(%q) error = %v, want ErrEmptyInput", input, err)
		}
	}
	if store.Len() != 0 {
		t.Error("empty input must not create a session")
	}

	turn, err := o.Begin("primeira")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := o.Begin("segunda"); !errors.Is(err, apierrors.ErrBusy) {
		t.Errorf("concurrent Begin error = %v, want ErrBusy", err)
	}
	sess, _ := store.Get(turn.SessionID)
	if len(sess.Messages) != 2 {
		t.Errorf("rejected send changed the session: %d messages", len(sess.Messages))
	}

	o.Run(context.Background(), turn, nil)
	if _, err := o.Begin("terceira"); err != nil {
		t.Errorf("Begin after settle failed: %v", err)
	}
}

func TestSend_BusyClosesEvents(t *testing.T) {
	o, _ := newTestOrchestrator(t, &api.MockGateway{})
	if _, err := o.Begin("primeira"); err != nil {
		t.Fatal(err)
	}

	ch := make(chan Event, 1)
	if err := o.Send(context.Background(), "segunda", ch); !errors.Is(err, apierrors.ErrBusy) {
		t.Errorf("error = %v, want ErrBusy", err)
	}
	if _, open := <-ch; open {
		t.Error("events channel should be closed on rejection")
	}
}

func TestNewChatAndSelect(t *testing.T) {
	gw := &api.MockGateway{Fragments: []string{"ok"}}
	o, store := newTestOrchestrator(t, gw)

	_ = o.Send(context.Background(), "primeira conversa", nil)
	first := o.ActiveID()

	o.NewChat()
	if o.ActiveID() != "" {
		t.Fatal("NewChat should clear the active session")
	}

	_ = o.Send(context.Background(), "segunda conversa", nil)
	second := o.ActiveID()
	if second == first {
		t.Fatal("send after NewChat must create a new session")
	}
	if sessions := store.Sessions(); sessions[0].ID != second || sessions[1].ID != first {
		t.Error("sessions should be newest first")
	}

	if err := o.Select(first); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if o.ActiveID() != first {
		t.Error("Select did not activate the session")
	}
	if err := o.Select("missing"); !errors.Is(err, apierrors.ErrSessionNotFound) {
		t.Errorf("Select(missing) error = %v", err)
	}
	if o.ActiveID() != first {
		t.Error("failed Select must not change the active session")
	}
}

func TestDelete(t *testing.T) {
	gw := &api.MockGateway{Fragments: []string{"ok"}}
	o, store := newTestOrchestrator(t, gw)

	_ = o.Send(context.Background(), "a", nil)
	other := o.ActiveID()
	o.NewChat()
	_ = o.Send(context.Background(), "b", nil)
	active := o.ActiveID()
	activeBefore, _ := store.Get(active)

	if err := o.Delete(other); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if o.ActiveID() != active {
		t.Error("deleting another session must keep the active pointer")
	}
	activeAfter, _ := store.Get(active)
	if len(activeAfter.Messages) != len(activeBefore.Messages) {
		t.Error("deleting another session changed the active one")
	}

	if err := o.Delete(active); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if o.ActiveID() != "" {
		t.Error("deleting the active session must clear the pointer")
	}
	if store.Len() != 0 {
		t.Errorf("expected empty collection, got %d", store.Len())
	}
	if err := o.Delete(active); !errors.Is(err, apierrors.ErrSessionNotFound) {
		t.Errorf("second Delete error = %v", err)
	}
}

func TestDelete_DuringSendDropsUpdates(t *testing.T) {
	gate := make(chan struct{})
	gw := &api.MockGateway{Fragments: []string{"a", "b"}, Gate: gate}
	o, store := newTestOrchestrator(t, gw)

	turn, err := o.Begin("Oi")
	if err != nil {
		t.Fatal(err)
	}
	events := make(chan Event)
	go o.Run(context.Background(), turn, events)

	gate <- struct{}{}
	if ev := <-events; ev.Type != EventFragment {
		t.Fatalf("expected fragment, got %s", ev.Type)
	}

	if err := o.Delete(turn.SessionID); err != nil {
		t.Fatalf("Delete during send failed: %v", err)
	}
	if !o.Busy() {
		t.Error("delete must not clear the busy flag")
	}

	gate <- struct{}{}
	if ev := <-events; ev.Type != EventSettled || ev.Err != nil {
		t.Errorf("expected clean settle, got %+v", ev)
	}
	if store.Len() != 0 {
		t.Error("late updates must not recreate the session")
	}
	if o.Busy() {
		t.Error("busy should clear after settle")
	}
}

func TestDelete_OtherSessionDuringSend(t *testing.T) {
	gate := make(chan struct{})
	gw := &api.MockGateway{Fragments: []string{"ok"}}
	o, store := newTestOrchestrator(t, gw)

	_ = o.Send(context.Background(), "antiga", nil)
	old := o.ActiveID()
	o.NewChat()

	gw.Gate = gate
	turn, err := o.Begin("nova")
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		o.Run(context.Background(), turn, nil)
		close(done)
	}()

	if err := o.Delete(old); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	gate <- struct{}{}
	<-done

	sess, ok := store.Get(turn.SessionID)
	if !ok {
		t.Fatal("in-flight session vanished")
	}
	if last, _ := sess.LastMessage(); last.Content != "ok" {
		t.Errorf("reply = %q", last.Content)
	}
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	backend, err := kv.Open(kv.BackendFile, dir)
	if err != nil {
		t.Fatal(err)
	}
	defer backend.Close()

	store := history.NewStore(backend, nil)
	o := New(store, &api.MockGateway{Fragments: []string{"salvo"}})
	_ = o.Send(context.Background(), "persistir", nil)

	reloaded := history.NewStore(backend, nil)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	sessions := reloaded.Sessions()
	if len(sessions) != 1 || len(sessions[0].Messages) != 2 {
		t.Fatalf("unexpected persisted state %+v", sessions)
	}
	if sessions[0].Messages[1].Content != "salvo" {
		t.Errorf("persisted reply = %q", sessions[0].Messages[1].Content)
	}

	if err := o.Delete(sessions[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	if reloaded.Len() != 0 {
		t.Error("delete of the last session must persist an empty collection")
	}
}

func TestNew_DropsUnknownActive(t *testing.T) {
	store := history.NewStore(nil, nil)
	s := models.NewSession("x")
	_ = store.Prepend(s)

	if o := New(store, &api.MockGateway{}, WithActiveSession(s.ID)); o.ActiveID() != s.ID {
		t.Error("known session should be active")
	}
	if o := New(store, &api.MockGateway{}, WithActiveSession("gone")); o.ActiveID() != "" {
		t.Error("unknown session must not be active")
	}
}

func TestPhaseBusy(t *testing.T) {
	busy := map[Phase]bool{
		PhaseIdle:            false,
		PhaseSending:         true,
		PhaseStreamingText:   true,
		PhaseGeneratingImage: true,
		PhaseSettledOK:       false,
		PhaseSettledError:    false,
	}
	for p, want := range busy {
		if p.Busy() != want {
			t.Errorf("%s.Busy() = %v, want %v", p, p.Busy(), want)
		}
	}
}
