package platform

import (
	lua "github.com/yuin/gopher-lua"
)

// GlobalName is the Lua global the platform table is bound to.
const GlobalName = "platform"

// InjectPlatformTable binds a read-only table describing info to the
// "platform" global. Call it before running user code.
//
//	platform.os, platform.arch, platform.distro, platform.family,
//	platform.version, platform.is_linux, platform.is_macos,
//	platform.when(cond, value)
func InjectPlatformTable(L *lua.LState, info *Info) {
	t := L.NewTable()
	L.SetField(t, "os", lua.LString(info.OS))
	L.SetField(t, "arch", lua.LString(info.Arch))
	L.SetField(t, "is_linux", lua.LBool(info.IsLinux()))
	L.SetField(t, "is_macos", lua.LBool(info.IsMacOS()))

	// distro fields stay nil off Linux so "if platform.distro then" works
	if info.Distro != "" {
		L.SetField(t, "distro", lua.LString(info.Distro))
		L.SetField(t, "family", lua.LString(info.Family))
		L.SetField(t, "version", lua.LString(info.Version))
	}

	L.SetField(t, "when", L.NewFunction(func(L *lua.LState) int {
		if L.CheckBool(1) {
			L.Push(L.Get(2))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))

	L.SetGlobal(GlobalName, readOnly(L, t))
}

// readOnly returns an empty proxy whose metatable forwards reads to t and
// rejects writes.
func readOnly(L *lua.LState, t *lua.LTable) *lua.LTable {
	mt := L.NewTable()
	L.SetField(mt, "__index", t)
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("platform table is read-only")
		return 0
	}))
	L.SetField(mt, "__metatable", lua.LString("protected"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)
	return proxy
}
