package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Alia5/lwclone/internal/board"
	"github.com/Alia5/lwclone/internal/configpaths"
	"github.com/Alia5/lwclone/internal/emulator"
	"github.com/Alia5/lwclone/internal/log"
	"github.com/Alia5/lwclone/internal/server/api"
	"github.com/Alia5/lwclone/internal/server/api/auth"
	"github.com/Alia5/lwclone/internal/server/api/handler"
)

const keyFileName = "lwclone.key.txt"

// Timing holds the tick periods of the emulated controllers.
type Timing struct {
	PWMPeriod  time.Duration `help:"LED PWM tick period" default:"1ms" env:"LWCLONE_TIMING_PWM_PERIOD"`
	ScanPeriod uint32        `help:"Panel scan period in milliseconds" default:"5" env:"LWCLONE_TIMING_SCAN_PERIOD"`
}

// Link configures the in-process serial link of a split build.
type Link struct {
	Depth     uint    `help:"log2 of the number of chunks per link queue" default:"3" env:"LWCLONE_LINK_DEPTH"`
	ErrorRate float64 `help:"Probability of a line error per character (fault injection)" default:"0" env:"LWCLONE_LINK_ERROR_RATE"`
}

type Serve struct {
	Board   string `help:"Board file (YAML, TOML or JSON); board.* from the config dirs, else the built-in Pro Micro board, when empty" type:"path" env:"LWCLONE_BOARD"`
	Build   string `help:"Controller build" enum:"single,split" default:"single" env:"LWCLONE_BUILD"`
	PanelOn string `help:"Controller that scans the panel in a split build" enum:"usb,led" default:"usb" env:"LWCLONE_PANEL_ON"`
	ID      uint8  `help:"Initial device id" default:"1" env:"LWCLONE_ID"`

	ApiServerConfig   api.ServerConfig `embed:"" prefix:"api."`
	Auth              bool             `help:"Require API authentication; without --api.password the password is read from or generated into the key file" env:"LWCLONE_API_AUTH"`
	Timing            Timing           `embed:"" prefix:"timing."`
	Link              Link             `embed:"" prefix:"link."`
	ConnectionTimeout time.Duration    `help:"Time a client has to send its request" default:"30s" env:"LWCLONE_CONNECTION_TIMEOUT"`
}

// Run is called by Kong when the serve command is executed.
func (s *Serve) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.StartServer(ctx, logger, rawLogger)
}

func (s *Serve) loadBoard(logger *slog.Logger) (*board.Board, error) {
	path := s.Board
	if path == "" {
		path = configpaths.FindBoard()
	}
	if path == "" {
		logger.Info("Using built-in board", "board", "promicro")
		return board.Default(), nil
	}
	b, err := board.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load board: %w", err)
	}
	logger.Info("Loaded board", "file", path, "board", b.Name, "inputs", len(b.Inputs), "leds", len(b.LEDs))
	return b, nil
}

// password resolves the API password, creating the key file on first use.
func (s *Serve) password(logger *slog.Logger) (string, error) {
	if s.ApiServerConfig.Password != "" || !s.Auth {
		return s.ApiServerConfig.Password, nil
	}
	keyFileDir, err := configpaths.DefaultConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve key file path: %w", err)
	}
	keyFilePath := filepath.Join(keyFileDir, keyFileName)
	if pwd, err := os.ReadFile(keyFilePath); err == nil {
		if p := strings.TrimSpace(string(pwd)); p != "" {
			return p, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read key file: %w", err)
	}

	newPwd, err := auth.GeneratePassword()
	if err != nil {
		return "", fmt.Errorf("failed to generate new API password: %w", err)
	}
	if err := os.MkdirAll(keyFileDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config dir for key file: %w", err)
	}
	if err := os.WriteFile(keyFilePath, []byte(newPwd), 0o600); err != nil {
		return "", fmt.Errorf("failed to write new API password to file: %w", err)
	}
	logger.Info("Generated API server password", "path", keyFilePath)
	logger.Info("-------------------------------------")
	logger.Info(newPwd)
	logger.Info("-------------------------------------")
	logger.Info("You can change this password at any time by editing the file")
	return newPwd, nil
}

func (s *Serve) StartServer(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	s.ApiServerConfig.ConnectionTimeout = s.ConnectionTimeout
	if s.ApiServerConfig.Addr == "" {
		return errors.New("API server address must be set (default :3243)")
	}

	b, err := s.loadBoard(logger)
	if err != nil {
		return err
	}
	pwd, err := s.password(logger)
	if err != nil {
		return err
	}
	s.ApiServerConfig.Password = pwd

	d, err := emulator.New(b, emulator.Options{
		Build:      s.Build,
		PanelOn:    s.PanelOn,
		PWMPeriod:  s.Timing.PWMPeriod,
		ScanPeriod: s.Timing.ScanPeriod,
		LinkDepth:  s.Link.Depth,
		ErrorRate:  s.Link.ErrorRate,
		Config:     emulator.NewIdentity(s.ID, log.Component(logger, "identity")),
		Logger:     logger,
		Raw:        rawLogger,
	})
	if err != nil {
		return err
	}

	apiSrv, err := api.New(s.ApiServerConfig.Addr, s.ApiServerConfig, log.Component(logger, "api"))
	if err != nil {
		return err
	}
	Register(apiSrv.Router(), d)
	if err := apiSrv.Start(); err != nil {
		logger.Error("failed to start API server", "error", err)
		return err
	}
	defer apiSrv.Close()

	return d.Run(ctx)
}

// Register mounts every API route of d on r.
func Register(r *api.Router, d *emulator.Device) {
	r.Register("ping", handler.Ping(d))
	r.Register("leds", handler.LEDs(d))
	r.Register("inputs", handler.Inputs(d))
	r.Register("inputs/{index}/press", handler.InputSet(d, true))
	r.Register("inputs/{index}/release", handler.InputSet(d, false))
	r.Register("command", handler.Command(d))
	r.Register("stats", handler.Stats(d))
	r.RegisterStream("stream", handler.Stream(d))
}
