package bootstrap

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	broadcastoutadapter "focustrack/internal/modules/broadcast/adapter/out"
	broadcastdomain "focustrack/internal/modules/broadcast/domain"
	broadcastout "focustrack/internal/modules/broadcast/port/out"
	broadcastservice "focustrack/internal/modules/broadcast/service"
	sessioninadapter "focustrack/internal/modules/session/adapter/in"
	sessionoutadapter "focustrack/internal/modules/session/adapter/out"
	sessionservice "focustrack/internal/modules/session/service"
	sessionusecase "focustrack/internal/modules/session/usecase"
	syncqueueoutadapter "focustrack/internal/modules/syncqueue/adapter/out"
	syncqueueservice "focustrack/internal/modules/syncqueue/service"
	"focustrack/internal/platform/clock"
	"focustrack/internal/platform/config"
	"focustrack/internal/platform/drift"
	"focustrack/internal/platform/id"
	"focustrack/internal/platform/logger"
	"focustrack/internal/platform/netstatus"
	"focustrack/internal/ui/views/timer"
)

const (
	driftCallbackID = "bootstrap-wake"
	monitorChangeID = "bootstrap-drain"
)

// App holds the wired object graph plus the background loops. Close tears
// the loops down in reverse order of Start.
type App struct {
	SessionCLI sessioninadapter.CLIHandler
	Queue      *syncqueueservice.QueueService
	Monitor    *netstatus.Monitor
	Channel    *broadcastservice.Channel
	Drift      *drift.Detector
	Log        *logger.Logger

	bus broadcastout.Bus
}

func New(cfg config.Config) (*App, error) {
	log := logger.Default()
	clk := clock.SystemClock{}
	ids := id.UUID{}

	prober := netstatus.NewHTTPProber(cfg.APIBaseURL, cfg.RequestTimeout)
	monitor := netstatus.NewMonitor(prober, log, cfg.ProbeInterval)

	// Redis stands in for a shared broadcast channel between processes;
	// without it the channel still works, scoped to this process.
	var bus broadcastout.Bus
	if cfg.RedisAddr != "" {
		redisBus, err := broadcastoutadapter.NewRedisBus(cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			return nil, fmt.Errorf("connect broadcast bus: %w", err)
		}
		bus = redisBus
	} else {
		bus = broadcastoutadapter.NewMemoryBus()
	}
	channel := broadcastservice.NewChannel(bus, ids, clk, log)

	remote := sessionoutadapter.NewHTTPRemote(cfg.APIBaseURL, cfg.RequestTimeout)
	activeStore := sessionoutadapter.NewFileActiveStore(cfg.DataDir, clk, log)
	history, err := sessionoutadapter.NewSQLiteHistoryProjector(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open history projector: %w", err)
	}

	queue := syncqueueservice.NewQueueService(
		syncqueueoutadapter.NewFileStore(cfg.DataDir),
		sessionoutadapter.NewQueueExecutor(remote),
		monitor,
		clk,
		clock.SystemClock{},
		ids,
		log,
	)

	orch := sessionservice.NewOrchestrator(clk, remote, activeStore, queue, channel, monitor, ids, log)
	channel.AddListener(sessionservice.BroadcastListenerID, func(msg broadcastdomain.Message) {
		orch.HandleBroadcast(context.Background(), msg)
	})

	// Coming back online replays whatever queued up while we were away.
	monitor.OnChange(monitorChangeID, func(online bool) {
		if !online {
			return
		}
		if err := queue.Drain(context.Background()); err != nil {
			log.Warn("drain after reconnect", logger.Err(err))
		}
	})

	// Elapsed time self-corrects after a suspend because it is derived from
	// absolute instants; the detector's job is to log the gap and replay the
	// queue in case the network came back while the host slept.
	detector := drift.New(clk, log)
	detector.Register(driftCallbackID, func(gap time.Duration) {
		log.Warn("wall-clock jump detected", logger.F("gap", gap.String()))
		if err := queue.Drain(context.Background()); err != nil {
			log.Warn("drain after wake", logger.Err(err))
		}
	})

	uc := sessionusecase.NewInteractor(orch, activeStore, remote, history, monitor, clk, log)

	return &App{
		SessionCLI: sessioninadapter.NewCLIHandler(uc),
		Queue:      queue,
		Monitor:    monitor,
		Channel:    channel,
		Drift:      detector,
		Log:        log,
		bus:        bus,
	}, nil
}

// Start launches the background loops: broadcast subscription, connectivity
// polling and the wall-clock drift watch.
func (a *App) Start(ctx context.Context) error {
	if err := a.Channel.Start(ctx); err != nil {
		return fmt.Errorf("start broadcast channel: %w", err)
	}
	a.Monitor.Start()
	a.Drift.Start()
	return nil
}

func (a *App) Close() error {
	a.Drift.Stop()
	a.Monitor.Stop()
	return a.Channel.Close()
}

// RunTimer runs the full-screen watch surface until the user quits.
func RunTimer(app *App) error {
	model := timer.New(app.SessionCLI, app.Monitor)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
