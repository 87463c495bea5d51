package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	ophttp "github.com/priority-technologies/shreenika-voice-core/internal/adapters/http"
	"github.com/priority-technologies/shreenika-voice-core/internal/adapters/fillerstore"
	"github.com/priority-technologies/shreenika-voice-core/internal/adapters/metrics"
	"github.com/priority-technologies/shreenika-voice-core/internal/adapters/modelcache"
	"github.com/priority-technologies/shreenika-voice-core/internal/adapters/postgres"
	"github.com/priority-technologies/shreenika-voice-core/internal/cache"
	"github.com/priority-technologies/shreenika-voice-core/internal/carrier"
	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
	"github.com/priority-technologies/shreenika-voice-core/internal/hedge"
	"github.com/priority-technologies/shreenika-voice-core/internal/ports"
	"github.com/priority-technologies/shreenika-voice-core/internal/prompt"
	"github.com/priority-technologies/shreenika-voice-core/internal/supervisor"
	voicecoreotel "github.com/priority-technologies/shreenika-voice-core/pkg/otel"
	"github.com/priority-technologies/shreenika-voice-core/shared/id"
)

// serveCmd starts the ops HTTP surface and the carrier ingress listener.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the call supervisor's carrier ingress and ops HTTP surface",
		Long: `serve opens the configured carrier listener (telephony or browser
websocket ingress; webrtc dispatch for LiveKit rooms) and spawns one Call
Supervisor per inbound call, alongside the ambient /healthz and /metrics
HTTP surface.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// deps bundles the long-lived, process-wide collaborators every call's
// Supervisor shares (spec §4.10: everything per-call is owned by the
// Supervisor itself; everything here is process-global).
type deps struct {
	log        *slog.Logger
	agentRepo  ports.AgentRepository
	callRepo   ports.CallRepository
	turnRepo   ports.TurnRepository
	logRepo    ports.CallLogRepository
	metrics    ports.MetricsRecorder
	cacheMgr   *cache.Manager
	fillers    *hedge.Index
}

func runServer(ctx context.Context) error {
	logger := slog.Default()
	logger.Info("starting voicecore",
		"server", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		"carrier_kind", cfg.Carrier.Kind,
		"model", cfg.Model.Name,
	)

	otelResult, err := voicecoreotel.Init(voicecoreotel.Config{
		ServiceName:  cfg.Telemetry.ServiceName,
		Environment:  cfg.Telemetry.Environment,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		logger.Warn("failed to initialize tracing, continuing without export", "error", err)
	} else {
		logger = otelResult.Logger
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelResult.Shutdown(shutdownCtx); err != nil {
				logger.Warn("tracer shutdown error", "error", err)
			}
		}()
	}

	pool, err := initDB(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("database connection established")

	fillers, err := fillerstore.Load(cfg.Fillers.ManifestPath)
	if err != nil {
		logger.Warn("failed to load filler manifest, hedge selector will have no candidates", "error", err, "path", cfg.Fillers.ManifestPath)
		fillers = nil
	}

	d := &deps{
		log:       logger,
		agentRepo: postgres.NewAgentsRepository(pool),
		callRepo:  postgres.NewCallsRepository(pool),
		turnRepo:  postgres.NewTurnsRepository(pool),
		logRepo:   postgres.NewCallLogsRepository(pool),
		metrics:   metrics.NewRecorder(),
		cacheMgr:  cache.NewManager(modelcache.New(cfg.Model.URL, cfg.Model.APIKey, cfg.Model.Name), logger),
		fillers:   hedge.NewIndex(fillers),
	}

	opsServer := ophttp.NewServer(cfg, pool)
	opsErrors := make(chan error, 1)
	go func() {
		opsErrors <- opsServer.Start()
	}()
	logger.Info("ops http server listening", "addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))

	ingressErrors := make(chan error, 1)
	ingressServer := startIngress(d)
	go func() {
		ingressErrors <- ingressServer.ListenAndServe()
	}()
	logger.Info("carrier ingress listening", "addr", cfg.Carrier.ListenAddr, "kind", cfg.Carrier.Kind)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-opsErrors:
		return fmt.Errorf("ops server error: %w", err)
	case err := <-ingressErrors:
		return fmt.Errorf("ingress server error: %w", err)
	case sig := <-sigChan:
		logger.Info("received signal, shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := opsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("ops server shutdown error", "error", err)
		}
		if err := ingressServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("ingress server shutdown error", "error", err)
		}
		return nil
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// startIngress builds the listener for the configured carrier kind. Telephony
// and browser both speak websocket; webrtc is dispatched by room-join
// notification instead of accepting a socket directly (spec §4.2/§4.3,
// SPEC_FULL §12 webrtc carrier variant).
func startIngress(d *deps) *http.Server {
	mux := http.NewServeMux()

	switch cfg.Carrier.Kind {
	case "telephony":
		mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			handleSocketIngress(d, w, r, domain.CarrierTelephony)
		})
	case "webrtc":
		mux.HandleFunc("/dispatch", func(w http.ResponseWriter, r *http.Request) {
			handleWebRTCDispatch(d, w, r)
		})
	default: // "browser"
		mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			handleSocketIngress(d, w, r, domain.CarrierBrowser)
		})
	}

	return &http.Server{
		Addr:         cfg.Carrier.ListenAddr,
		Handler:      mux,
		ReadTimeout:  0, // calls are long-lived; per-message deadlines belong to the carrier
		WriteTimeout: 0,
	}
}

func handleSocketIngress(d *deps, w http.ResponseWriter, r *http.Request, kind domain.CarrierKind) {
	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		http.Error(w, "agent_id is required", http.StatusBadRequest)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		d.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	callID := id.NewCall()
	lead := prompt.Lead{
		FirstName: r.URL.Query().Get("lead_first_name"),
		LastName:  r.URL.Query().Get("lead_last_name"),
	}

	ctx := context.Background()
	agent, err := d.agentRepo.Get(ctx, agentID)
	if err != nil {
		d.log.Error("failed to load agent for inbound call", "error", err, "agent_id", agentID)
		conn.Close()
		return
	}

	var c carrier.Carrier
	switch kind {
	case domain.CarrierTelephony:
		c = carrier.NewTelephony(conn, d.log)
	default:
		c = carrier.NewBrowser(conn, callID, d.log)
	}

	go runCall(d, callID, agent, lead, c)
}

type dispatchRequest struct {
	CallID        string `json:"call_id"`
	AgentID       string `json:"agent_id"`
	RoomName      string `json:"room_name"`
	LeadFirstName string `json:"lead_first_name"`
	LeadLastName  string `json:"lead_last_name"`
}

func handleWebRTCDispatch(d *deps, w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid dispatch body", http.StatusBadRequest)
		return
	}

	callID := req.CallID
	if callID == "" {
		callID = id.NewCall()
	}

	ctx := r.Context()
	agent, err := d.agentRepo.Get(ctx, req.AgentID)
	if err != nil {
		d.log.Error("failed to load agent for webrtc dispatch", "error", err, "agent_id", req.AgentID)
		http.Error(w, "unknown agent", http.StatusNotFound)
		return
	}

	c, err := carrier.ConnectWebRTC(carrier.WebRTCConfig{
		URL:           cfg.Carrier.LiveKitURL,
		APIKey:        cfg.Carrier.LiveKitAPIKey,
		APISecret:     cfg.Carrier.LiveKitSecret,
		RoomName:      req.RoomName,
		AgentIdentity: "voicecore-" + callID,
		AgentName:     agent.DisplayName,
	}, callID, d.log)
	if err != nil {
		d.log.Error("failed to join webrtc room", "error", err, "room", req.RoomName)
		http.Error(w, "failed to join room", http.StatusBadGateway)
		return
	}

	lead := prompt.Lead{FirstName: req.LeadFirstName, LastName: req.LeadLastName}
	go runCall(d, callID, agent, lead, c)

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"call_id": callID})
}

// runCall constructs and drives one Supervisor end to end. Errors are
// logged, not returned, since there is no caller left to hand them to once
// the carrier connection is accepted.
func runCall(d *deps, callID string, agent *domain.Agent, lead prompt.Lead, c carrier.Carrier) {
	ctx := context.Background()

	sup := supervisor.New(supervisor.Config{
		CallID:    callID,
		Agent:     agent,
		Lead:      lead,
		Carrier:   c,
		Fillers:   d.fillers,
		CacheMgr:  d.cacheMgr,
		ModelURL:  cfg.Model.URL,
		ModelName: cfg.Model.Name,
		CallRepo:  d.callRepo,
		TurnRepo:  d.turnRepo,
		LogRepo:   d.logRepo,
		Metrics:   d.metrics,
		Observer:  logStateObserver{log: d.log},
		Log:       d.log.With("call_id", callID),
	})

	if err := sup.Prewarm(ctx); err != nil {
		d.log.Error("call prewarm failed", "call_id", callID, "error", err)
		c.Close()
		return
	}

	if err := sup.Run(ctx); err != nil {
		d.log.Error("call run failed", "call_id", callID, "error", err)
	}
}
