package luahook

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	lua "github.com/yuin/gopher-lua"
)

// toLua converts a Go value to a Lua value. Values without a direct Lua
// counterpart are converted through their JSON encoding.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint:
		return lua.LNumber(val)
	case uint32:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case time.Time:
		return lua.LNumber(float64(val.UnixNano()) / 1e9)
	case []byte:
		return rawToLua(L, val)
	case json.RawMessage:
		return rawToLua(L, val)
	case []any:
		t := L.CreateTable(len(val), 0)
		for i, item := range val {
			t.RawSetInt(i+1, toLua(L, item))
		}
		return t
	case map[string]any:
		t := L.CreateTable(0, len(val))
		for k, item := range val {
			t.RawSetString(k, toLua(L, item))
		}
		return t
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return lua.LString(fmt.Sprint(val))
		}
		return jsonToLua(L, gjson.ParseBytes(b))
	}
}

// rawToLua decodes JSON bytes, falling back to a plain string.
func rawToLua(L *lua.LState, b []byte) lua.LValue {
	if gjson.ValidBytes(b) {
		return jsonToLua(L, gjson.ParseBytes(b))
	}
	return lua.LString(b)
}

func jsonToLua(L *lua.LState, r gjson.Result) lua.LValue {
	switch r.Type {
	case gjson.Null:
		return lua.LNil
	case gjson.False:
		return lua.LFalse
	case gjson.True:
		return lua.LTrue
	case gjson.Number:
		return lua.LNumber(r.Float())
	case gjson.String:
		return lua.LString(r.Str)
	}

	t := L.NewTable()
	if r.IsArray() {
		i := 1
		r.ForEach(func(_, value gjson.Result) bool {
			t.RawSetInt(i, jsonToLua(L, value))
			i++
			return true
		})
		return t
	}
	r.ForEach(func(key, value gjson.Result) bool {
		t.RawSetString(key.Str, jsonToLua(L, value))
		return true
	})
	return t
}

// fromLua converts a Lua value to a Go value. Tables with keys 1..n become
// []any, other tables map[string]any. Integral numbers become int64.
func fromLua(lv lua.LValue) any {
	return fromLuaVisited(lv, make(map[*lua.LTable]bool))
}

func fromLuaVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		// Break circular references.
		if visited[v] {
			return nil
		}
		visited[v] = true
		return tableFromLua(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func tableFromLua(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	if n > 0 && count == n {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = fromLuaVisited(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = strconv.FormatFloat(float64(kv), 'f', -1, 64)
		default:
			key = k.String()
		}
		m[key] = fromLuaVisited(v, visited)
	})
	return m
}
