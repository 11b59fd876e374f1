package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"github.com/zoravur/tabletop-sync/internal/auth"
	"github.com/zoravur/tabletop-sync/internal/dice"
	"github.com/zoravur/tabletop-sync/internal/mocks"
	"github.com/zoravur/tabletop-sync/internal/protocol"
	"github.com/zoravur/tabletop-sync/internal/reactive"
	"github.com/zoravur/tabletop-sync/internal/session"
)

const testSecret = "test-secret"

var (
	alice = auth.Identity{UserID: 1, Username: "alice"}
	bob   = auth.Identity{UserID: 2, Username: "bob"}
)

type roomSignal struct {
	room  protocol.RoomID
	scope string
}

// recordingDispatcher remembers every server-originated event on its way
// to the real dispatcher, so live connections still receive it.
type recordingDispatcher struct {
	*protocol.Dispatcher

	mu        sync.Mutex
	published []protocol.Event
}

func (d *recordingDispatcher) Publish(ev protocol.Event) int {
	d.mu.Lock()
	d.published = append(d.published, ev)
	d.mu.Unlock()
	return d.Dispatcher.Publish(ev)
}

func (d *recordingDispatcher) stateUpdates() []roomSignal {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []roomSignal
	for _, ev := range d.published {
		if ev.Type == protocol.KindStateUpdate {
			out = append(out, roomSignal{ev.RoomID, ev.Scope})
		}
	}
	return out
}

func (d *recordingDispatcher) rolls() []protocol.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []protocol.Event
	for _, ev := range d.published {
		if ev.Type == protocol.KindRoll {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	store    *mocks.MockStore
	pub      *recordingDispatcher
	reg      *protocol.Registry
	coord    *session.Coordinator
	verifier *auth.JWTVerifier
	handler  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	ctrl := gomock.NewController(t)

	st := mocks.NewMockStore(ctrl)
	reg := protocol.NewRegistry()
	disp := protocol.NewDispatcher(reg, dice.NewSeeded(3), log)
	coord := session.NewCoordinator(reg, disp, log)
	t.Cleanup(coord.Shutdown)

	pub := &recordingDispatcher{Dispatcher: disp}
	f := &fixture{
		store:    st,
		pub:      pub,
		reg:      reg,
		coord:    coord,
		verifier: auth.NewJWTVerifier(testSecret),
	}
	f.handler = SetupRoutes(Deps{
		Handlers: &Handlers{
			Store:  st,
			Notify: reactive.NewNotifier(reactive.Deps{Publisher: pub, Rooms: st}, log),
			Dice:   pub,
		},
		WS:       &WSHandler{Coordinator: coord},
		Registry: reg,
		Verifier: f.verifier,
	})
	return f
}

func (f *fixture) token(t *testing.T, id auth.Identity) string {
	t.Helper()
	tok, err := f.verifier.Sign(id, time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends body (raw string or JSON-encoded value) as id.
func (f *fixture) do(t *testing.T, method, path string, body any, id auth.Identity) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token(t, id))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func ptr[T any](v T) *T { return &v }
