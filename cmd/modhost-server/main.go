// Command modhost-server hosts one or more games' mod runtimes over the
// wire protocol (spec.md §6): one flag, --config, defaulting to
// <exe-stem>.json next to the binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/stamforge/modhost/internal/bootstrap"
	"github.com/stamforge/modhost/internal/config"
	"github.com/stamforge/modhost/internal/logging"
	"github.com/stamforge/modhost/internal/session"
	"github.com/stamforge/modhost/internal/telemetry"
	"github.com/stamforge/modhost/internal/wire"
)

func main() {
	defaultConfig := defaultConfigPath()
	configPath := flag.String("config", defaultConfig, "path to the server JSON config file")
	flag.Parse()

	log := logging.New("modhost-server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, "modhost-server")
	if err != nil {
		config.Exitf("telemetry setup failed: %v", err)
	}
	defer shutdownTelemetry(context.Background())

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		config.Exitf("load config %s: %v", *configPath, err)
	}

	games, err := bootstrap.BootstrapServer(ctx, cfg, log)
	if err != nil {
		config.Exitf("bootstrap failed: %v", err)
	}
	log.Info("bootstrap complete", "game_count", len(games))

	addr := fmt.Sprintf("%s:%d", cfg.LocalIP, cfg.LocalPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		config.Exitf("listen on %s: %v", addr, err)
	}
	defer ln.Close()
	log.Info("listening", "addr", addr)

	driver := &session.Driver{
		Games:      gamesByID(games),
		ServerList: buildServerList(cfg),
		Log:        log,
	}

	listener := wire.NewListener(ln)
	go acceptLoop(ctx, listener, driver, log)

	<-ctx.Done()
	log.Info("shutting down")
}

func gamesByID(games []bootstrap.ServerGame) map[string]bootstrap.ServerGame {
	out := make(map[string]bootstrap.ServerGame, len(games))
	for _, g := range games {
		out[g.ID] = g
	}
	return out
}

// buildServerList answers the PrimalLogin server list: every enabled
// game, joinable at the same base connect URI (spec.md §8 scenario 1
// shows one uri shared across every listed game, with no per-game path
// suffix). cfg.PublicURI overrides the synthesized local address for a
// server reachable behind a different public host.
func buildServerList(cfg *config.ServerConfig) []wire.ServerInfo {
	uri := cfg.PublicURI
	if uri == "" {
		uri = fmt.Sprintf("stam://%s:%d", cfg.LocalIP, cfg.LocalPort)
	}
	out := make([]wire.ServerInfo, 0, len(cfg.Games))
	for gameID, gc := range cfg.Games {
		if !gc.Enabled {
			continue
		}
		out = append(out, wire.ServerInfo{GameID: gameID, Name: gc.Name, URI: uri})
	}
	return out
}

func acceptLoop(ctx context.Context, l *wire.Listener, driver *session.Driver, log *slog.Logger) {
	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				log.Warn("accept failed", "error", err)
				continue
			}
		}
		log.Info("connection accepted", "conn_id", conn.ID)
		go driver.Serve(ctx, conn)
	}
}

func defaultConfigPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "modhost-server.json"
	}
	stem := strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe))
	return filepath.Join(filepath.Dir(exe), stem+".json")
}
