package zhttp

import "reflect"

// Extensions 以类型为键的属性包，用于跨层传递元数据
type Extensions struct {
	m map[reflect.Type]any
}

func (e *Extensions) set(t reflect.Type, v any) {
	if e.m == nil {
		e.m = make(map[reflect.Type]any)
	}
	e.m[t] = v
}

func (e *Extensions) get(t reflect.Type) (any, bool) {
	v, ok := e.m[t]
	return v, ok
}

// Len 当前存放的条目数
func (e *Extensions) Len() int { return len(e.m) }

// SetExt 以 T 为键存入 v，覆盖已有值
func SetExt[T any](req *Req, v T) {
	req.ext.set(reflect.TypeOf((*T)(nil)).Elem(), v)
}

// Ext 取出类型为 T 的值
func Ext[T any](req *Req) (T, bool) {
	v, ok := req.ext.get(reflect.TypeOf((*T)(nil)).Elem())
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// DelExt 删除类型为 T 的值
func DelExt[T any](req *Req) {
	delete(req.ext.m, reflect.TypeOf((*T)(nil)).Elem())
}
