package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/Alia5/lwclone/apiclient"
	"github.com/Alia5/lwclone/apitypes"
)

// APIFlags selects the emulator API a client command talks to.
type APIFlags struct {
	API         string `name:"api" help:"API address of a running emulator" default:"localhost:3243" env:"LWCLONE_API"`
	Password    string `help:"API password" env:"LWCLONE_API_PASSWORD"`
	AskPassword bool   `help:"Prompt for the API password on the terminal"`
}

func (f APIFlags) client() (*apiclient.Client, error) {
	pwd := f.Password
	if f.AskPassword && pwd == "" {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return nil, errors.New("--ask-password needs a terminal on stdin")
		}
		fmt.Fprint(os.Stderr, "API password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		pwd = string(b)
	}
	if pwd != "" {
		return apiclient.NewWithPassword(f.API, pwd), nil
	}
	return apiclient.New(f.API), nil
}

// call runs f against the API and prints its result.
func call[T any](flags APIFlags, f func(c *apiclient.Client) (T, error)) error {
	c, err := flags.client()
	if err != nil {
		return err
	}
	return printJSON(f(c))
}

var stdout io.Writer = os.Stdout

func printJSON(v any, err error) error {
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(b))
	return err
}

type LEDs struct {
	APIFlags `embed:""`
}

func (c *LEDs) Run() error {
	return call(c.APIFlags, func(cl *apiclient.Client) (*apitypes.LEDsResponse, error) { return cl.LEDs() })
}

type Inputs struct {
	APIFlags `embed:""`
}

func (c *Inputs) Run() error {
	return call(c.APIFlags, func(cl *apiclient.Client) (*apitypes.InputsResponse, error) { return cl.Inputs() })
}

type Press struct {
	APIFlags `embed:""`
	Input    string `arg:"" help:"Input index or name"`
}

func (c *Press) Run() error {
	return call(c.APIFlags, func(cl *apiclient.Client) (*apitypes.InputSetResponse, error) { return cl.Press(c.Input) })
}

type Release struct {
	APIFlags `embed:""`
	Input    string `arg:"" help:"Input index or name"`
}

func (c *Release) Run() error {
	return call(c.APIFlags, func(cl *apiclient.Client) (*apitypes.InputSetResponse, error) { return cl.Release(c.Input) })
}

type Stats struct {
	APIFlags `embed:""`
}

func (c *Stats) Run() error {
	return call(c.APIFlags, func(cl *apiclient.Client) (*apitypes.StatsResponse, error) { return cl.Stats() })
}
