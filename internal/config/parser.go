package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/pget/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

const (
	luaGlobal = "pget"

	// MaxFileSize bounds the config file read into the VM.
	MaxFileSize = 1 << 20

	// DefaultParseTimeout bounds evaluation of the config file.
	DefaultParseTimeout = 5 * time.Second
)

// ParseError is returned when the config file cannot be evaluated or does
// not have the expected shape.
type ParseError struct {
	File    string
	Message string // short, user-facing
	Detail  string // raw Lua error or offending value
}

func (e *ParseError) Error() string {
	prefix := "config"
	if e.File != "" {
		prefix = e.File
	}
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", prefix, e.Message, e.Detail)
}

// FormatError renders err for the terminal. Lua stack tracebacks are only
// shown in verbose mode.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		return err.Error()
	}
	if verbose {
		return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
	}
	detail := parseErr.Detail
	if idx := strings.Index(detail, "stack traceback"); idx > 0 {
		detail = strings.TrimSpace(detail[:idx])
	}
	short := *parseErr
	short.Detail = detail
	return short.Error()
}

// Parser evaluates Lua config files.
type Parser struct {
	detector platform.Detector
}

// NewParser returns a Parser that injects the platform table produced by
// detector. A nil detector leaves "platform" undefined.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseFile evaluates the file at path. See ParseString.
func (p *Parser) ParseFile(ctx context.Context, path string) (map[string]any, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, &ParseError{File: path, Message: "not a regular file"}
	}
	if info.Size() > MaxFileSize {
		return nil, &ParseError{File: path, Message: "file too large", Detail: fmt.Sprintf("%d bytes, limit %d", info.Size(), MaxFileSize)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	values, err := p.ParseString(ctx, string(data))
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		parseErr.File = path
	}
	return values, err
}

// ParseString evaluates code and returns the settings found in the global
// "pget" table, keyed like the other configuration layers (install_root,
// build_tool, fetch_timeout, ...). Keys the file does not set are absent.
func (p *Parser) ParseString(ctx context.Context, code string) (map[string]any, error) {
	if len(code) > MaxFileSize {
		return nil, &ParseError{Message: "file too large"}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultParseTimeout)
		defer cancel()
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		platform.InjectPlatformTable(L, info)
	}

	if err := L.DoString(code); err != nil {
		if ctx.Err() != nil {
			return nil, &ParseError{Message: "evaluation timed out", Detail: ctx.Err().Error()}
		}
		return nil, &ParseError{Message: "Lua error", Detail: err.Error()}
	}

	return extract(L)
}

type luaField struct {
	table *lua.LTable
	field string
	key   string
	conv  func(lua.LValue) (any, error)
}

// extract converts the "pget" table to flat configuration keys.
func extract(L *lua.LState) (map[string]any, error) {
	root, ok := L.GetGlobal(luaGlobal).(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: "missing or invalid 'pget' table",
			Detail:  fmt.Sprintf("expected table, got %s", L.GetGlobal(luaGlobal).Type()),
		}
	}

	fields := []luaField{
		{root, "install_root", KeyInstallRoot, luaString},
		{root, "owner", KeyOwner, luaString},
		{root, "branch", KeyBranch, luaString},
	}

	build, err := subTable(root, "build")
	if err != nil {
		return nil, err
	}
	if build != nil {
		fields = append(fields,
			luaField{build, "tool", KeyBuildTool, luaString},
			luaField{build, "timeout", KeyBuildTimeout, luaDuration},
		)
	}

	fetch, err := subTable(root, "fetch")
	if err != nil {
		return nil, err
	}
	if fetch != nil {
		fields = append(fields,
			luaField{fetch, "timeout", KeyFetchTimeout, luaDuration},
			luaField{fetch, "retries", KeyRetries, luaInt},
		)
	}

	out := map[string]any{}
	for _, f := range fields {
		v := f.table.RawGetString(f.field)
		if v == lua.LNil {
			continue
		}
		converted, err := f.conv(v)
		if err != nil {
			return nil, &ParseError{Message: fmt.Sprintf("invalid value for %s", f.key), Detail: err.Error()}
		}
		out[f.key] = converted
	}
	return out, nil
}

func subTable(t *lua.LTable, field string) (*lua.LTable, error) {
	switch v := t.RawGetString(field).(type) {
	case *lua.LTable:
		return v, nil
	case *lua.LNilType:
		return nil, nil
	default:
		return nil, &ParseError{
			Message: fmt.Sprintf("invalid '%s' table", field),
			Detail:  fmt.Sprintf("expected table, got %s", v.Type()),
		}
	}
}

func luaString(v lua.LValue) (any, error) {
	s, ok := v.(lua.LString)
	if !ok {
		return nil, fmt.Errorf("expected string, got %s", v.Type())
	}
	return string(s), nil
}

// luaDuration accepts a Go duration string ("90s", "5m") or a number of
// seconds.
func luaDuration(v lua.LValue) (any, error) {
	switch d := v.(type) {
	case lua.LString:
		parsed, err := time.ParseDuration(string(d))
		if err != nil {
			return nil, err
		}
		return parsed.String(), nil
	case lua.LNumber:
		return time.Duration(float64(d) * float64(time.Second)).String(), nil
	default:
		return nil, fmt.Errorf("expected duration string or seconds, got %s", v.Type())
	}
}

func luaInt(v lua.LValue) (any, error) {
	n, ok := v.(lua.LNumber)
	if !ok {
		return nil, fmt.Errorf("expected number, got %s", v.Type())
	}
	if float64(n) != float64(int(n)) {
		return nil, fmt.Errorf("expected integer, got %v", n)
	}
	return int(n), nil
}
