package config

import (
	"fmt"
	"stfed/internal/model"
	"stfed/internal/util"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/shlex"
	"github.com/spf13/viper"
)

// hookEntry is one [[hooks]] table. Command is either a shell-like string
// or an array of arguments.
type hookEntry struct {
	Folder          string `mapstructure:"folder"`
	Event           string `mapstructure:"event"`
	Filter          string `mapstructure:"filter"`
	Command         any    `mapstructure:"command"`
	AllowConcurrent bool   `mapstructure:"allow_concurrent"`
}

// LoadHooks parses a hooks file. Hooks are returned in file order without ids.
func LoadHooks(file string) ([]model.Hook, error) {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read hooks file %s: %w", file, err)
	}

	var entries []hookEntry
	if err := v.UnmarshalKey("hooks", &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hooks: %w", err)
	}

	hooks := make([]model.Hook, 0, len(entries))
	for i, e := range entries {
		h, err := e.toHook()
		if err != nil {
			return nil, fmt.Errorf("hook #%d: %w", i+1, err)
		}
		hooks = append(hooks, h)
	}

	return hooks, nil
}

func (e hookEntry) toHook() (model.Hook, error) {
	if e.Folder == "" {
		return model.Hook{}, fmt.Errorf("folder is required")
	}
	folder, err := util.NormalizePath(e.Folder)
	if err != nil {
		return model.Hook{}, fmt.Errorf("invalid folder %q: %w", e.Folder, err)
	}

	kind, err := model.ParseEventKind(e.Event)
	if err != nil {
		return model.Hook{}, err
	}

	if e.Filter != "" && !doublestar.ValidatePattern(e.Filter) {
		return model.Hook{}, fmt.Errorf("invalid filter %q: %w", e.Filter, doublestar.ErrBadPattern)
	}

	command, err := parseCommand(e.Command)
	if err != nil {
		return model.Hook{}, err
	}

	return model.Hook{
		Folder:          folder,
		Event:           kind,
		Filter:          e.Filter,
		Command:         command,
		AllowConcurrent: e.AllowConcurrent,
	}, nil
}

func parseCommand(raw any) ([]string, error) {
	var command []string

	switch c := raw.(type) {
	case string:
		args, err := shlex.Split(c)
		if err != nil {
			return nil, fmt.Errorf("invalid command %q: %w", c, err)
		}
		command = args
	case []any:
		for _, arg := range c {
			s, ok := arg.(string)
			if !ok {
				return nil, fmt.Errorf("invalid command argument %v", arg)
			}
			command = append(command, s)
		}
	case []string:
		command = c
	case nil:
	default:
		return nil, fmt.Errorf("invalid command type %T", raw)
	}

	if len(command) == 0 {
		return nil, fmt.Errorf("command is required")
	}

	return command, nil
}
