// Package config resolves pget's settings.
//
// Settings are layered, lowest precedence first:
//
//  1. built-in defaults
//  2. the Lua config file ($XDG_CONFIG_HOME/pget/config.lua or --config)
//  3. PGET_* environment variables
//  4. command-line flags that were explicitly set
//
// The config file is evaluated in a sandboxed gopher-lua VM with a read-only
// platform table, so it can branch on the host:
//
//	pget = {
//	  install_root = "~/.pget/bin",
//	  owner = "pynosaur",
//	  branch = "main",
//	  build = { tool = platform.is_macos and "bazelisk" or "bazel", timeout = "30m" },
//	  fetch = { timeout = "5m", retries = 3 },
//	}
//
// The file must assign a global "pget" table. It cannot reach os, io,
// require, load or debug.
package config
