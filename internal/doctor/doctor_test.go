package doctor

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"hello-solana/go-backend/internal/config"
	"hello-solana/go-backend/internal/domains/program/model"
	"hello-solana/go-backend/pkg/models"
)

type fakeProber struct {
	healthErr error
	info      models.ProgramInfo
}

func (f fakeProber) Health(context.Context) error { return f.healthErr }

func (f fakeProber) ProgramInfo(context.Context) (models.ProgramInfo, error) {
	return f.info, nil
}

func newTestService() *Service {
	s := New()
	s.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func assertCheck(t *testing.T, report Report, name string, wantPass bool) {
	t.Helper()
	for _, c := range report.Checks {
		if c.Name == name {
			if c.Pass != wantPass {
				t.Fatalf("check %s: got pass=%v want=%v (reason=%q)", name, c.Pass, wantPass, c.Reason)
			}
			return
		}
	}
	t.Fatalf("check %s not found in %+v", name, report.Checks)
}

func TestDoctorReadyWithMatchingNode(t *testing.T) {
	cfg := config.Default()
	report := newTestService().Run(context.Background(), Input{
		Config: cfg,
		Prober: fakeProber{info: models.ProgramInfo{ProgramID: model.DefaultProgramID, Capacity: 200}},
	})
	if !report.Ready {
		t.Fatalf("expected ready, report=%+v", report)
	}
	assertCheck(t, report, "program_id_matches", true)
	assertCheck(t, report, "capacity_matches", true)
}

func TestDoctorDetectsUnavailableListenAddr(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen temp port: %v", err)
	}
	defer func() {
		if closeErr := ln.Close(); closeErr != nil {
			t.Logf("close temp listener: %v", closeErr)
		}
	}()
	cfg := config.Default()
	cfg.RPC.Listen = ln.Addr().String()

	report := newTestService().Run(context.Background(), Input{Config: cfg, CheckListen: true})
	if report.Ready {
		t.Fatalf("expected readiness fail for bound address, report=%+v", report)
	}
	assertCheck(t, report, "listen_addr_available", false)
}

func TestDoctorDetectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Program.Capacity = 0
	cfg.RPC.Listen = "/ip4/127.0.0.1/udp/53"

	report := newTestService().Run(context.Background(), Input{Config: cfg})
	assertCheck(t, report, "config_valid", false)
	assertCheck(t, report, "listen_addr_valid", false)
}

func TestDoctorReportsUnreachableAndMismatchedNode(t *testing.T) {
	cfg := config.Default()
	report := newTestService().Run(context.Background(), Input{
		Config: cfg,
		Prober: fakeProber{healthErr: errors.New("connection refused")},
	})
	assertCheck(t, report, "rpc_reachable", false)

	report = newTestService().Run(context.Background(), Input{
		Config: cfg,
		Prober: fakeProber{info: models.ProgramInfo{ProgramID: model.DefaultProgramID, Capacity: 64}},
	})
	if report.Ready {
		t.Fatal("capacity mismatch must fail readiness")
	}
	assertCheck(t, report, "capacity_matches", false)
}
