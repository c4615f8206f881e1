package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"unjam/internal/daemon"
	"unjam/internal/logging"
	"unjam/internal/services"
	"unjam/internal/trigger"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Unjam", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually before the next start"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.StartedAt = status.StartedAt
	resp.LockPath = status.LockFilePath
	resp.HistoryDBPath = status.HistoryDBPath
	resp.LogFilePath = s.daemon.LogPath()
	resp.CooldownActive = status.CooldownActive
	resp.CooldownRemainingSeconds = status.CooldownRemaining.Seconds()
	resp.LastTrigger = status.LastTrigger
	resp.ActiveRun = fromActive(status.ActiveRun)
	resp.LastRun = FromRun(status.LastRun)
	resp.IdleEnabled = status.IdleEnabled
	resp.IdleDisabled = status.IdleDisabled
	resp.IdleForSeconds = status.IdleFor.Seconds()
	resp.ScheduleRules = status.ScheduleRules
	resp.NextScheduled = status.NextScheduled
	resp.RunsCompleted = status.RunsCompleted
	resp.RunsFailed = status.RunsFailed
	return nil
}

func (s *service) Run(req RunRequest, resp *RunResponse) error {
	source := req.Source
	if source == "" {
		source = trigger.SourceManual
	}
	s.log().Debug("run requested", logging.String(logging.FieldTriggerSource, source))

	run, err := s.daemon.TriggerRun(s.ctx, source)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyRunning):
			resp.RejectReason = RejectAlreadyRunning
		case errors.Is(err, services.ErrCooldownActive):
			resp.RejectReason = RejectCooldown
			status := s.daemon.Status(s.ctx)
			resp.CooldownRemainingSeconds = status.CooldownRemaining.Seconds()
		default:
			return err
		}
		return nil
	}
	resp.Accepted = true
	resp.Run = FromRun(run)
	return nil
}

func (s *service) CooldownReset(_ CooldownResetRequest, resp *CooldownResetResponse) error {
	s.log().Debug("cooldown reset requested")
	if err := s.daemon.CooldownReset(); err != nil {
		return err
	}
	resp.Reset = true
	return nil
}

func (s *service) CooldownApply(_ CooldownApplyRequest, resp *CooldownApplyResponse) error {
	s.log().Debug("cooldown apply requested")
	if err := s.daemon.CooldownApply(); err != nil {
		return err
	}
	resp.Applied = true
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	runs, err := s.daemon.History(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Runs = make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		if summary := FromRun(run); summary != nil {
			resp.Runs = append(resp.Runs, *summary)
		}
	}
	return nil
}
