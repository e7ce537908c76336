package repl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/shlex"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/cli/command"
	httpclient "github.com/FlowerRealm/oi-code-extension-sub002/internal/cli/http"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/cli/state"
)

// Session holds REPL state.
type Session struct {
	client    *httpclient.Client
	commands  map[string]command.Command
	prefs     *state.PrefState
	statePath string
	pretty    bool
	rl        *readline.Instance
	prompt    string
}

func New(client *httpclient.Client, commands map[string]command.Command, prefs *state.PrefState, statePath string, pretty bool) (*Session, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "runner> ",
		HistoryFile:     historyPath(statePath),
		AutoComplete:    buildCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("init readline failed: %w", err)
	}
	return &Session{
		client:    client,
		commands:  commands,
		prefs:     prefs,
		statePath: statePath,
		pretty:    pretty,
		rl:        rl,
		prompt:    "runner> ",
	}, nil
}

func (s *Session) Close() {
	_ = s.rl.Close()
}

func (s *Session) Run(ctx context.Context) {
	for {
		line, err := s.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.printLine("read input failed: %v", err)
			}
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if s.handleSystemCommand(line) {
			continue
		}

		if err := s.handleCommand(ctx, line); err != nil {
			s.printLine("error: %v", err)
		}
	}
}

func (s *Session) handleSystemCommand(line string) bool {
	switch line {
	case "exit", "quit":
		s.printLine("bye")
		s.Close()
		os.Exit(0)
	case "help":
		s.printHelp()
		return true
	}
	if strings.HasPrefix(line, "set ") {
		s.handleSet(strings.TrimSpace(strings.TrimPrefix(line, "set ")))
		return true
	}
	if strings.HasPrefix(line, "show ") {
		s.handleShow(strings.TrimSpace(strings.TrimPrefix(line, "show ")))
		return true
	}
	return false
}

func (s *Session) handleSet(args string) {
	parts, err := shlex.Split(args)
	if err != nil || len(parts) == 0 {
		s.printLine("usage: set base|timeout|toolchain|opt|std|flags|time|memory")
		return
	}
	switch parts[0] {
	case "base":
		if len(parts) < 2 {
			s.printLine("usage: set base http://127.0.0.1:8090")
			return
		}
		s.client.SetBaseURL(parts[1])
		s.printLine("base set to %s", parts[1])
		return
	case "timeout":
		if len(parts) < 2 {
			s.printLine("usage: set timeout 30s")
			return
		}
		dur, err := time.ParseDuration(parts[1])
		if err != nil {
			s.printLine("invalid duration: %v", err)
			return
		}
		s.client.SetTimeout(dur)
		s.printLine("timeout set to %s", dur)
		return
	case "toolchain":
		if len(parts) < 2 {
			s.prefs.ToolchainPath = ""
			s.printLine("toolchain pin cleared")
		} else {
			s.prefs.ToolchainPath = parts[1]
			s.printLine("toolchain pinned to %s", parts[1])
		}
	case "opt":
		if len(parts) < 2 {
			s.printLine("usage: set opt O2")
			return
		}
		s.prefs.OptimizationLevel = parts[1]
		s.printLine("optimization set to %s", parts[1])
	case "std":
		if len(parts) < 2 {
			s.printLine("usage: set std c++20")
			return
		}
		s.prefs.LanguageStandard = parts[1]
		s.printLine("standard set to %s", parts[1])
	case "flags":
		s.prefs.ExtraFlags = parts[1:]
		s.printLine("extra flags set to %v", s.prefs.ExtraFlags)
	case "time":
		if len(parts) < 2 {
			s.printLine("usage: set time 2000")
			return
		}
		ms, err := command.ParseInt64(parts[1])
		if err != nil {
			s.printLine("invalid time limit: %v", err)
			return
		}
		s.prefs.TimeLimitMs = ms
		s.printLine("time limit set to %dms", ms)
	case "memory":
		if len(parts) < 2 {
			s.printLine("usage: set memory 256")
			return
		}
		mb, err := command.ParseInt64(parts[1])
		if err != nil {
			s.printLine("invalid memory limit: %v", err)
			return
		}
		s.prefs.MemoryMB = mb
		s.printLine("memory limit set to %dMB", mb)
	default:
		s.printLine("unknown set command")
		return
	}
	if err := state.Save(s.statePath, *s.prefs); err != nil {
		s.printLine("save preferences failed: %v", err)
	}
}

func (s *Session) handleShow(args string) {
	switch args {
	case "prefs":
		data, _ := json.MarshalIndent(s.prefs, "", "  ")
		s.printLine("%s", string(data))
	case "config":
		s.printLine("base: %s", s.client.BaseURL())
		s.printLine("prefStatePath: %s", s.statePath)
	default:
		s.printLine("usage: show prefs|config")
	}
}

func (s *Session) handleCommand(ctx context.Context, line string) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	if len(tokens) < 2 {
		return fmt.Errorf("invalid command, use: <service> <action> key=value ...")
	}
	service := tokens[0]
	action := tokens[1]
	key := fmt.Sprintf("%s %s", service, action)
	cmd, ok := s.commands[key]
	if !ok {
		return fmt.Errorf("unknown command: %s %s", service, action)
	}
	params := command.Params{}
	for _, token := range tokens[2:] {
		parts := strings.SplitN(token, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid param: %s", token)
		}
		params.Set(parts[0], parts[1])
	}

	s.applyPreferences(&cmd, params)
	if err := s.promptMissing(&cmd, params); err != nil {
		return err
	}
	req, err := command.BuildRequest(cmd, params)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(ctx, req.Method, req.Path, req.Headers, req.Body)
	if err != nil {
		return err
	}
	s.renderResponse(resp)
	return nil
}

// applyPreferences fills sticky run preferences into params that the
// user did not override on the command line.
func (s *Session) applyPreferences(cmd *command.Command, params command.Params) {
	if cmd.Service != "run" || cmd.Action != "submit" {
		return
	}
	params.Canonicalize(cmd.Fields)
	if s.prefs.ToolchainPath != "" && !params.Has("toolchain") {
		params.Set("toolchain", s.prefs.ToolchainPath)
	}
	if s.prefs.OptimizationLevel != "" && !params.Has("opt") {
		params.Set("opt", s.prefs.OptimizationLevel)
	}
	if s.prefs.LanguageStandard != "" && !params.Has("std") {
		params.Set("std", s.prefs.LanguageStandard)
	}
	if len(s.prefs.ExtraFlags) > 0 && !params.Has("extra_flags") {
		params.Set("extra_flags", strings.Join(s.prefs.ExtraFlags, " "))
	}
	if s.prefs.TimeLimitMs > 0 && !params.Has("time_limit_ms") {
		params.Set("time_limit_ms", fmt.Sprintf("%d", s.prefs.TimeLimitMs))
	}
	if s.prefs.MemoryMB > 0 && !params.Has("memory_mb") {
		params.Set("memory_mb", fmt.Sprintf("%d", s.prefs.MemoryMB))
	}
}

func (s *Session) promptMissing(cmd *command.Command, params command.Params) error {
	for _, field := range cmd.Fields {
		if !field.Required {
			continue
		}
		if params.Has(field.Name) && params.Get(field.Name) != "" {
			continue
		}
		value, err := s.promptValue(field.Prompt)
		if err != nil {
			return err
		}
		params.Set(field.Name, value)
	}
	return nil
}

func (s *Session) promptValue(prompt string) (string, error) {
	s.rl.SetPrompt(prompt + ": ")
	defer s.rl.SetPrompt(s.prompt)
	line, err := s.rl.Readline()
	if err != nil {
		return "", fmt.Errorf("read input failed: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (s *Session) renderResponse(resp httpclient.ResponseInfo) {
	s.printLine("HTTP %d (%s)", resp.StatusCode, resp.Duration)
	if len(resp.Body) == 0 {
		return
	}
	if s.pretty {
		var raw interface{}
		if err := json.Unmarshal(resp.Body, &raw); err == nil {
			formatted, _ := json.MarshalIndent(raw, "", "  ")
			s.printLine("%s", string(formatted))
			return
		}
	}
	s.printLine("%s", string(resp.Body))
}

func (s *Session) printHelp() {
	s.printLine("usage: <service> <action> key=value ...")
	s.printLine("system: help | exit | set base|timeout|toolchain|opt|std|flags|time|memory | show prefs|config")
	s.printLine("examples:")
	s.printLine("  toolchain list")
	s.printLine("  toolchain rescan")
	s.printLine("  run submit file=./main.cpp input=\"1 2\" time=2000 mem=256")
	s.printLine("  set std c++20")
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.rl.Stdout(), format+"\n", args...)
}

func buildCompleter() readline.AutoCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("toolchain",
			readline.PcItem("list"),
			readline.PcItem("rescan"),
		),
		readline.PcItem("run",
			readline.PcItem("submit"),
		),
		readline.PcItem("set",
			readline.PcItem("base"),
			readline.PcItem("timeout"),
			readline.PcItem("toolchain"),
			readline.PcItem("opt"),
			readline.PcItem("std"),
			readline.PcItem("flags"),
			readline.PcItem("time"),
			readline.PcItem("memory"),
		),
		readline.PcItem("show",
			readline.PcItem("prefs"),
			readline.PcItem("config"),
		),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

func historyPath(statePath string) string {
	if statePath == "" {
		return ""
	}
	return statePath + ".history"
}
