package doctor

import (
	"context"
	"fmt"
	"net"
	"time"

	"hello-solana/go-backend/internal/config"
	"hello-solana/go-backend/pkg/models"
)

// Prober is the slice of the RPC client the readiness checks need.
type Prober interface {
	Health(ctx context.Context) error
	ProgramInfo(ctx context.Context) (models.ProgramInfo, error)
}

type Input struct {
	Config      config.Config
	// CheckListen probes that the configured listen address can be bound.
	// Leave it off when the node is already running on that address.
	CheckListen bool
	Prober      Prober
}

type Check struct {
	Name   string `json:"name"`
	Pass   bool   `json:"pass"`
	Reason string `json:"reason,omitempty"`
}

type Report struct {
	Ready     bool      `json:"ready"`
	Checks    []Check   `json:"checks"`
	CheckedAt time.Time `json:"checked_at"`
}

type Service struct {
	now func() time.Time
}

func New() *Service {
	return &Service{now: func() time.Time { return time.Now().UTC() }}
}

// Run evaluates local configuration and, when a prober is given, the remote
// node. A failed check marks the report not ready but never returns an error.
func (s *Service) Run(ctx context.Context, input Input) Report {
	report := Report{
		Ready:     true,
		Checks:    make([]Check, 0, 8),
		CheckedAt: s.now(),
	}
	appendCheck := func(name string, pass bool, reason string) {
		report.Checks = append(report.Checks, Check{Name: name, Pass: pass, Reason: reason})
		if !pass {
			report.Ready = false
		}
	}

	cfg := input.Config
	if err := cfg.Validate(); err != nil {
		appendCheck("config_valid", false, err.Error())
	} else {
		appendCheck("config_valid", true, "")
	}

	listen, err := cfg.ListenAddr()
	if err != nil {
		appendCheck("listen_addr_valid", false, err.Error())
	} else {
		appendCheck("listen_addr_valid", true, "")
		if input.CheckListen {
			if err := checkListenAvailable(listen); err != nil {
				appendCheck("listen_addr_available", false, err.Error())
			} else {
				appendCheck("listen_addr_available", true, "")
			}
		}
	}

	if input.Prober == nil {
		return report
	}
	if err := input.Prober.Health(ctx); err != nil {
		appendCheck("rpc_reachable", false, err.Error())
		return report
	}
	appendCheck("rpc_reachable", true, "")

	info, err := input.Prober.ProgramInfo(ctx)
	if err != nil {
		appendCheck("program_info", false, err.Error())
		return report
	}
	appendCheck("program_info", true, "")
	idMatch := info.ProgramID == cfg.Program.ID
	appendCheck("program_id_matches", idMatch, failReason(!idMatch,
		fmt.Sprintf("node program_id=%s, configured=%s", info.ProgramID, cfg.Program.ID)))
	capMatch := info.Capacity == cfg.Program.Capacity
	appendCheck("capacity_matches", capMatch, failReason(!capMatch,
		fmt.Sprintf("node capacity=%d, configured=%d", info.Capacity, cfg.Program.Capacity)))
	return report
}

func failReason(failed bool, reason string) string {
	if !failed {
		return ""
	}
	return reason
}

func checkListenAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen address %s is unavailable: %w", addr, err)
	}
	_ = ln.Close()
	return nil
}
