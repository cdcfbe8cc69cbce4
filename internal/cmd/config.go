package cmd

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Alia5/lwclone/internal/board"
	"github.com/Alia5/lwclone/internal/configpaths"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// ConfigCommand groups config-related subcommands.
type ConfigCommand struct {
	Init ConfigInit `cmd:"" help:"Generate a configuration template"`
}

// ConfigInit scaffolds a configuration file for a specific command.
type ConfigInit struct {
	Command string `arg:"" name:"command" help:"Command to generate config for; board writes the built-in board file" enum:"serve,board"`
	Format  string `help:"Output format" enum:"json,yaml,toml" default:"json"`
	Output  string `help:"Destination file path (defaults to current directory)"`
	Force   bool   `help:"Overwrite if the file already exists"`
}

// Run writes the template for c.Command.
func (c *ConfigInit) Run() error {
	format := normalizeFormat(c.Format)
	if format == "" {
		return fmt.Errorf("unsupported format: %s", c.Format)
	}
	data, err := c.render(format)
	if err != nil {
		return err
	}

	dest := c.Output
	if dest == "" {
		dest = c.Command + "." + format
	}
	if _, err := os.Stat(dest); err == nil && !c.Force {
		return fmt.Errorf("%s exists; use --force to overwrite", dest)
	}
	if err := configpaths.EnsureDir(dest); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}

func (c *ConfigInit) render(format string) ([]byte, error) {
	switch c.Command {
	case "serve":
		return encode(templateOf(reflect.TypeOf(Serve{})), format)
	case "board":
		return board.Default().Marshal(format)
	}
	return nil, errors.New("unknown command; expected 'serve' or 'board'")
}

func encode(v map[string]any, format string) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(v)
	case "toml":
		return toml.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}

func normalizeFormat(f string) string {
	switch strings.ToLower(f) {
	case "json", "toml":
		return strings.ToLower(f)
	case "yaml", "yml":
		return "yaml"
	}
	return ""
}

// lowerCamel lowercases the leading word: PanelOn -> panelOn, PWMPeriod -> pwmPeriod.
func lowerCamel(s string) string {
	r := []rune(s)
	for i := range r {
		if !unicode.IsUpper(r[i]) {
			break
		}
		if i > 0 && i+1 < len(r) && unicode.IsLower(r[i+1]) {
			break
		}
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}

// templateOf maps the kong flags of t to their defaults. Embedded structs
// with a prefix become nested maps; fields tagged kong:"-" are left out.
func templateOf(t reflect.Type) map[string]any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := map[string]any{}
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("kong") == "-" {
			continue
		}
		if _, embedded := f.Tag.Lookup("embed"); embedded {
			sub := templateOf(f.Type)
			if name := strings.TrimSuffix(f.Tag.Get("prefix"), "."); name != "" {
				out[name] = sub
				continue
			}
			maps.Copy(out, sub)
			continue
		}
		if v := defaultOf(f.Type, f.Tag.Get("default")); v != nil {
			out[lowerCamel(f.Name)] = v
		}
	}
	return out
}

// defaultOf converts a default tag to a value of kind t. Unparsable
// defaults fall back to the zero value.
func defaultOf(t reflect.Type, def string) any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == reflect.TypeOf(time.Duration(0)) {
		return cmp.Or(def, "0s")
	}
	switch t.Kind() {
	case reflect.String:
		return def
	case reflect.Bool:
		b, _ := strconv.ParseBool(def)
		return b
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, _ := strconv.ParseInt(def, 10, 64)
		return n
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, _ := strconv.ParseUint(def, 10, 64)
		return n
	case reflect.Float32, reflect.Float64:
		f, _ := strconv.ParseFloat(def, 64)
		return f
	case reflect.Struct:
		return templateOf(t)
	}
	return nil
}
