package testing

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/Alia5/lwclone/internal/board"
	"github.com/Alia5/lwclone/internal/emulator"
	"github.com/Alia5/lwclone/internal/server/api"
)

// StartAPIServer runs an emulated default board and an API server on a free
// port, and calls register so the test can mount the handlers it needs.
// Returns the address, the device and a function to call when done.
func StartAPIServer(t *testing.T, opts emulator.Options, register func(r *api.Router, d *emulator.Device)) (addr string, d *emulator.Device, done func()) {
	t.Helper()
	return StartAPIServerConfig(t, api.ServerConfig{}, opts, register)
}

// StartAPIServerConfig is StartAPIServer with an explicit server config; Addr
// is always replaced by a free loopback port.
func StartAPIServerConfig(t *testing.T, cfg api.ServerConfig, opts emulator.Options, register func(r *api.Router, d *emulator.Device)) (addr string, d *emulator.Device, done func()) {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	d, err := emulator.New(board.Default(), opts)
	if err != nil {
		t.Fatalf("device create failed: %v", err)
	}

	cfg.Addr = "127.0.0.1:0"
	apiSrv, err := api.New(cfg.Addr, cfg, slog.Default())
	if err != nil {
		t.Fatalf("api create failed: %v", err)
	}
	if register != nil {
		register(apiSrv.Router(), d)
	}
	if err := apiSrv.Start(); err != nil {
		t.Fatalf("api start failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = d.Run(ctx)
	}()

	done = func() {
		apiSrv.Close()
		cancel()
		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			t.Error("device did not stop")
		}
	}
	return apiSrv.Addr(), d, done
}

// ExecCmd dials the API server, sends cmd and reads the full response.
// The command should not include a trailing newline. Returns the response
// without the trailing newline.
func ExecCmd(t *testing.T, addr string, cmd string) string {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()

	_, _ = fmt.Fprintf(c, "%s\x00", cmd)

	r := bufio.NewReader(c)
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		t.Fatalf("read failed: %v", err)
	}

	result := strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(result, "\r")
}
