package command

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
)

// Registry returns all CLI commands keyed by "service action".
func Registry() map[string]Command {
	commands := []Command{
		{
			Service:      "toolchain",
			Action:       "list",
			Method:       "GET",
			PathTemplate: "/api/v1/toolchains",
		},
		{
			Service:      "toolchain",
			Action:       "rescan",
			Method:       "GET",
			PathTemplate: "/api/v1/toolchains?rescan=1",
		},
		{
			Service:      "run",
			Action:       "submit",
			Method:       "POST",
			PathTemplate: "/api/v1/run",
			Fields: []Field{
				{Name: "source_file", Aliases: []string{"file", "src"}, Prompt: "source file path", Type: FieldFile, Required: true},
				{Name: "language", Aliases: []string{"lang"}, Prompt: "language (c or cpp)", Type: FieldString, Required: false},
				{Name: "input", Prompt: "stdin text", Type: FieldString, Required: false},
				{Name: "input_file", Prompt: "stdin file path", Type: FieldFile, Required: false},
				{Name: "time_limit_ms", Aliases: []string{"time"}, Prompt: "time limit ms", Type: FieldInt64, Required: false},
				{Name: "memory_mb", Aliases: []string{"mem"}, Prompt: "memory limit mb", Type: FieldInt64, Required: false},
				{Name: "toolchain", Prompt: "toolchain path", Type: FieldString, Required: false},
				{Name: "opt", Prompt: "optimization level", Type: FieldString, Required: false},
				{Name: "std", Prompt: "language standard", Type: FieldString, Required: false},
				{Name: "extra_flags", Aliases: []string{"flags"}, Prompt: "extra compiler flags", Type: FieldStringList, Required: false},
			},
		},
	}

	result := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		key := fmt.Sprintf("%s %s", cmd.Service, cmd.Action)
		result[key] = cmd
	}
	return result
}

// BuildRequest creates HTTP request spec based on command.
func BuildRequest(cmd Command, params Params) (RequestSpec, error) {
	params.Canonicalize(cmd.Fields)

	var body []byte
	if cmd.Method != "GET" && cmd.Method != "DELETE" {
		payload, err := buildPayload(cmd, params)
		if err != nil {
			return RequestSpec{}, err
		}
		if payload != nil {
			body, err = json.Marshal(payload)
			if err != nil {
				return RequestSpec{}, fmt.Errorf("marshal request body failed: %w", err)
			}
		}
	}

	return RequestSpec{
		Method:  cmd.Method,
		Path:    cmd.PathTemplate,
		Headers: map[string]string{},
		Body:    body,
	}, nil
}

func buildPayload(cmd Command, params Params) (interface{}, error) {
	if cmd.Service == "run" && cmd.Action == "submit" {
		return buildRunPayload(params)
	}
	return nil, nil
}

func buildRunPayload(params Params) (interface{}, error) {
	sourceFile := params.Get("source_file")
	if sourceFile == "" {
		return nil, fmt.Errorf("source_file is required")
	}
	source, err := ReadFile(sourceFile)
	if err != nil {
		return nil, err
	}

	language := params.Get("language")
	if language == "" {
		language = languageFromPath(sourceFile)
	}

	input := params.Get("input")
	if input == "" && params.Get("input_file") != "" {
		input, err = ReadFile(params.Get("input_file"))
		if err != nil {
			return nil, err
		}
	}

	payload := map[string]interface{}{
		"source":   source,
		"fileName": filepath.Base(sourceFile),
		"language": language,
		"input":    input,
	}
	if params.Get("time_limit_ms") != "" {
		ms, err := ParseInt64(params.Get("time_limit_ms"))
		if err != nil {
			return nil, fmt.Errorf("invalid time_limit_ms: %w", err)
		}
		payload["timeLimitMs"] = ms
	}
	if params.Get("memory_mb") != "" {
		mb, err := ParseInt64(params.Get("memory_mb"))
		if err != nil {
			return nil, fmt.Errorf("invalid memory_mb: %w", err)
		}
		payload["memoryMb"] = mb
	}
	if params.Get("toolchain") != "" {
		payload["toolchainPath"] = params.Get("toolchain")
	}
	if params.Get("opt") != "" {
		payload["optimizationLevel"] = params.Get("opt")
	}
	if params.Get("std") != "" {
		payload["languageStandard"] = params.Get("std")
	}
	if params.Get("extra_flags") != "" {
		flags, err := ParseFlagList(params.Get("extra_flags"))
		if err != nil {
			return nil, fmt.Errorf("invalid extra_flags: %w", err)
		}
		payload["extraFlags"] = flags
	}
	return payload, nil
}

// ParseFlagList splits compiler flags shell-style, so quoted values
// like -DNAME="a b" survive.
func ParseFlagList(value string) ([]string, error) {
	return shlex.Split(strings.TrimSpace(value))
}

func languageFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c":
		return "c"
	default:
		return "cpp"
	}
}
