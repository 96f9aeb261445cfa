package config

import (
	lua "github.com/yuin/gopher-lua"
)

const (
	callStackSize = 256
	registrySize  = 1024 * 8
)

// blockedGlobals are removed before user code runs. They give access to
// processes, files, external code or the VM internals.
var blockedGlobals = []string{
	"os",
	"io",
	"require",
	"module",
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"debug",
	"collectgarbage",
}

// newSandboxedVM returns a Lua state with only the declarative subset of the
// standard library: string, table, math and the basic functions.
func newSandboxedVM() *lua.LState {
	L := lua.NewState(lua.Options{
		CallStackSize:       callStackSize,
		RegistrySize:        registrySize,
		IncludeGoStackTrace: false,
	})
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}
