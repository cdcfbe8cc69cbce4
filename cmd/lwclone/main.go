package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Alia5/lwclone/internal/config"
	"github.com/Alia5/lwclone/internal/configpaths"
	"github.com/Alia5/lwclone/internal/log"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
)

func main() {
	var cli config.CLI
	ctx := kong.Parse(&cli, parseOptions(os.Args[1:])...)

	logger, closers, err := log.SetupLogger(cli.Log.Level, cli.Log.File)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	raw, rawFile := rawLogger(cli.Log, logger)
	if rawFile != nil {
		closers = append(closers, rawFile)
	}

	ctx.Bind(logger)
	ctx.BindTo(raw, (*log.RawLogger)(nil))
	err = ctx.Run()
	for _, c := range closers {
		_ = c.Close()
	}
	ctx.FatalIfErrorf(err)
}

// parseOptions names the app and feeds every config candidate to the loader
// of its format. Flags and env vars win over file values.
func parseOptions(args []string) []kong.Option {
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(configFlag(args))
	return []kong.Option{
		kong.Name("lwclone"),
		kong.Description("LED and control panel controller emulator"),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	}
}

// configFlag finds --config before kong runs, since kong needs the
// resolvers up front.
func configFlag(args []string) string {
	for i, a := range args {
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv("LWCLONE_CONFIG")
}

// rawLogger picks the sink for link frame dumps: the raw file when set,
// stdout at trace level, else nothing. The returned closer may be nil.
func rawLogger(cfg config.Log, logger *slog.Logger) (log.RawLogger, io.Closer) {
	switch {
	case cfg.RawFile != "":
		f, err := os.OpenFile(cfg.RawFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Error("failed to open raw log file", "file", cfg.RawFile, "error", err)
			return log.NewRaw(nil), nil
		}
		return log.NewRaw(f), f
	case cfg.Level == "trace":
		return log.NewRaw(os.Stdout), nil
	}
	return log.NewRaw(nil), nil
}
