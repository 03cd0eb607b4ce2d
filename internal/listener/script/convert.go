package script

import (
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/semtrace/internal/trace"
	"github.com/dshills/semtrace/internal/trace/format"
)

// toLua converts a payload value. Values without a natural Lua form are
// passed as their default string rendering.
func toLua(v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case int8:
		return lua.LNumber(x)
	case int16:
		return lua.LNumber(x)
	case int32:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case uint:
		return lua.LNumber(x)
	case uint8:
		return lua.LNumber(x)
	case uint16:
		return lua.LNumber(x)
	case uint32:
		return lua.LNumber(x)
	case uint64:
		return lua.LNumber(x)
	case float32:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	case []byte:
		return lua.LString(x)
	case time.Time:
		return lua.LString(x.Format(time.RFC3339Nano))
	default:
		return lua.LString(format.Value(v))
	}
}

// eventTable builds the table handed to on_event.
func eventTable(L *lua.LState, e *trace.Event) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("source", lua.LString(e.SourceName()))
	t.RawSetString("name", lua.LString(e.Name()))
	t.RawSetString("id", lua.LNumber(e.ID()))
	t.RawSetString("level", lua.LString(e.Level().String()))
	t.RawSetString("keywords", lua.LNumber(e.Keywords()))
	t.RawSetString("message", lua.LString(e.Message()))
	t.RawSetString("text", lua.LString(e.Render()))
	t.RawSetString("timestamp", lua.LString(e.Timestamp.Format(time.RFC3339Nano)))

	payload := L.NewTable()
	args := L.NewTable()
	for i, p := range e.Schema.Params {
		var v lua.LValue = lua.LNil
		if i < len(e.Payload) {
			v = toLua(e.Payload[i])
		}
		payload.RawSetInt(i+1, v)
		args.RawSetString(p.Name, v)
	}
	t.RawSetString("payload", payload)
	t.RawSetString("args", args)

	return t
}
