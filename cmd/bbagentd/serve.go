// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jontk/bb-agent/internal/bbstate"
	"github.com/jontk/bb-agent/internal/rpcagent"
	"github.com/jontk/bb-agent/pkg/logging"
	"github.com/jontk/bb-agent/pkg/metrics"
	"github.com/jontk/bb-agent/pkg/snapshotserver"
	"github.com/jontk/bb-agent/pkg/transport"
	"github.com/jontk/bb-agent/pkg/uidresolve"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var listen string
	var poolRefresh time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the snapshot server and accept parallel RPC agent dispatch requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := flags.newLogger()

			cfg, err := bbstate.LoadConfig(flags.confDir, flags.pluginType, uidresolve.OSResolver{}, logger)
			if err != nil {
				return err
			}

			state := bbstate.NewState(logger, metrics.NoOp())
			state.Config = *cfg

			collector := metrics.NoOp()
			srv := snapshotserver.New(state, logger, collector)

			dispatcher := &rpcagent.Dispatcher{
				Transport: &transport.TCP{},
				Report:    srv.Feed,
				Logger:    logger,
				Metrics:   collector,
			}

			jobs := newJobStore()

			mux := http.NewServeMux()
			mux.Handle("/", srv.Handler())
			mux.HandleFunc("/rpc/broadcast", broadcastHandler(dispatcher))
			mux.HandleFunc("/admin/alloc", allocHandler(state, jobs))
			mux.HandleFunc("/admin/release", releaseHandler(state, jobs))

			httpSrv := &http.Server{Addr: listen, Handler: mux}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go runPoolRefresh(ctx, cfg, state, jobs, logger, collector, poolRefresh)

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				httpSrv.Shutdown(shutdownCtx)
			}()

			logger.Info("bbagentd serving", "addr", listen)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":8080", "address to listen on")
	cmd.Flags().DurationVar(&poolRefresh, "pool-refresh", 30*time.Second, "interval between pool-importer runs and use_time recomputation")
	return cmd
}

// runPoolRefresh periodically imports the pool inventory (C5) and
// recomputes use_time/NextEndTime across the allocation table (C4's
// scheduling hook, C7's SetUseTime) against jobs this daemon has been told
// about via /admin/alloc. It runs once immediately so the snapshot
// endpoints don't serve an empty pool for the first interval, then on
// every tick until ctx is canceled.
func runPoolRefresh(ctx context.Context, cfg *bbstate.Config, state *bbstate.State, jobs *jobStore, logger logging.Logger, collector *metrics.Collector, interval time.Duration) {
	refresh := func() {
		entries := bbstate.GetPoolEntries(ctx, cfg, logger, collector)
		now := time.Now()
		state.Lock()
		state.Pool = entries
		bbstate.SetUseTime(state, jobs, now)
		state.Unlock()
	}

	refresh()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

type broadcastRequest struct {
	Targets []string `json:"targets"`
	Names   []string `json:"names"`
	MsgType string   `json:"msg_type"`
}

func broadcastHandler(d *rpcagent.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req broadcastRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		msgType, ok := parseMsgType(req.MsgType)
		if !ok {
			http.Error(w, "unknown msg_type: "+req.MsgType, http.StatusBadRequest)
			return
		}

		results, err := d.Dispatch(r.Context(), rpcagent.TaskDescriptor{
			TargetAddresses: req.Targets,
			TargetNames:     req.Names,
			MsgType:         msgType,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(results)
	}
}

func parseMsgType(s string) (rpcagent.MsgType, bool) {
	switch s {
	case "REVOKE_JOB_CREDENTIAL":
		return rpcagent.RevokeJobCredential, true
	case "NODE_REGISTRATION_STATUS":
		return rpcagent.NodeRegistrationStatus, true
	case "PING":
		return rpcagent.Ping, true
	default:
		return 0, false
	}
}
