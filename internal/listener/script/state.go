package script

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// newState creates a Lua state with only the base, table, string and math
// libraries. io, os, debug and package are never opened.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// call runs fn in protected mode. A timeout of zero means no limit.
func call(L *lua.LState, timeout time.Duration, fn lua.LValue, nret int, args ...lua.LValue) (ret []lua.LValue, err error) {
	if timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		L.SetContext(ctx)
		defer L.RemoveContext()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	top := L.GetTop()
	if err := L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, args...); err != nil {
		L.SetTop(top)
		return nil, err
	}

	ret = make([]lua.LValue, nret)
	for i := 0; i < nret; i++ {
		ret[i] = L.Get(top + i + 1)
	}
	L.SetTop(top)
	return ret, nil
}

// function returns the global named name if it is a function.
func function(L *lua.LState, name string) (lua.LValue, bool) {
	v := L.GetGlobal(name)
	return v, v.Type() == lua.LTFunction
}
