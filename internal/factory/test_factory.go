package factory

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/averykip/invadersync/internal/api"
	banmemory "github.com/averykip/invadersync/internal/banstore/memory"
	"github.com/averykip/invadersync/internal/dependencies/mocks"
	"github.com/averykip/invadersync/internal/janitor"
	"github.com/averykip/invadersync/internal/model"
	"github.com/averykip/invadersync/internal/relay"
	"github.com/averykip/invadersync/internal/services/moderation"
	"github.com/averykip/invadersync/internal/services/presence"
	"github.com/averykip/invadersync/internal/services/registry"
	"github.com/averykip/invadersync/internal/storage/memory"
)

// RecordingSink is a relay.Sink that captures deliveries instead of writing
// to websockets, letting tests drive the dispatcher without a transport
type RecordingSink struct {
	mu        sync.Mutex
	delivered []model.OutboundEvent
	closed    []model.ActorID
}

var _ relay.Sink = (*RecordingSink)(nil)

func (s *RecordingSink) Deliver(events ...model.OutboundEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, events...)
}

func (s *RecordingSink) CloseActor(id model.ActorID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, id)
}

// Delivered returns a copy of everything delivered so far
func (s *RecordingSink) Delivered() []model.OutboundEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.OutboundEvent, len(s.delivered))
	copy(out, s.delivered)
	return out
}

// Closed returns the actors whose connections were force-closed
func (s *RecordingSink) Closed() []model.ActorID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ActorID, len(s.closed))
	copy(out, s.closed)
	return out
}

// Reset discards everything recorded so far
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = nil
	s.closed = nil
}

// ConnectionCount satisfies the health handler's counter; the recording sink
// has no live connections
func (s *RecordingSink) ConnectionCount() int { return 0 }

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock     *mocks.MockClock
	MockRandom    *mocks.MockRandom
	MockScheduler *mocks.MockScheduler

	// BanMemory is the in-memory ban store backing App.BanStore
	BanMemory *banmemory.Store

	// Sink captures relay output in place of the websocket hub
	Sink *RecordingSink
}

// NewTestApp creates an App configured for testing with mocked dependencies
// and a recording sink instead of a live websocket hub
func NewTestApp() *TestApp {
	store := memory.New()
	bans := banmemory.New()
	mockClock := mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockSched := mocks.NewMockScheduler()
	sink := &RecordingSink{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := registry.NewController(store, mockClock, mockRandom)
	pres := presence.NewController(store, mockClock)
	mod := moderation.NewController(bans, reg, mockClock)
	dispatcher := relay.NewDispatcher(reg, pres, mod, bans,
		mockSched, mockClock, mockRandom, sink, logger)

	app := &App{
		Storage:    store,
		BanStore:   bans,
		Clock:      mockClock,
		Random:     mockRandom,
		Scheduler:  mockSched,
		Registry:   reg,
		Presence:   pres,
		Moderation: mod,
		Dispatcher: dispatcher,
	}
	app.Janitor = janitor.New(pres, reg, mod, bans, mockClock, logger, janitor.DefaultConfig())
	app.Router = api.NewRouter(api.RouterConfig{
		Logger:       logger,
		Registry:     reg,
		Presence:     pres,
		Dispatcher:   dispatcher,
		BanStore:     bans,
		Clock:        mockClock,
		Connections:  sink,
		Version:      "test",
		AdminKeyHash: "",
	})

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		MockRandom:    mockRandom,
		MockScheduler: mockSched,
		BanMemory:     bans,
		Sink:          sink,
	}
}
