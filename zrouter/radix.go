package zrouter

import (
	"strings"

	"github.com/SparkleBo/zapi/ziface"
)

type nodeKind uint8

const (
	nkStatic   nodeKind = iota // 字面量段
	nkParam                    // :param
	nkWildcard                 // *
)

// WildcardParam 通配段捕获的剩余路径所用的参数名
const WildcardParam = "*"

type node[H any] struct {
	kind     nodeKind
	label    string // 对于 static/param，存储段内容或参数名
	children []*node[H]
	handler  H
	has      bool // 是否注册了处理器
}

// Router 使用按段压缩的 Radix/Trie，处理器类型由调用方决定
type Router[H any] struct {
	root   *node[H]
	prefix string
}

func New[H any]() *Router[H] { return &Router[H]{root: &node[H]{kind: nkStatic}} }

func (r *Router[H]) Handle(method, path string, h H) {
	// 将 method 作为第一层以区分不同方法（避免额外维度）
	full := joinPath(r.prefix, path)
	segs := splitPath(full)
	cur := ensureChild(r.root, nkStatic, strings.ToUpper(method))
	for _, s := range segs {
		var kind nodeKind
		var label string
		if s == "*" {
			kind = nkWildcard
		} else if strings.HasPrefix(s, ":") {
			kind = nkParam
			label = s[1:]
		} else {
			kind = nkStatic
			label = s
		}
		cur = ensureChild(cur, kind, label)
		// wildcard 必须是最后一段，* 吃掉余下路径
		if kind == nkWildcard {
			break
		}
	}
	cur.handler = h
	cur.has = true
}

// Group 创建带前缀的子 Router，所有注册写入同一棵树
func (r *Router[H]) Group(prefix string) *Router[H] {
	return &Router[H]{root: r.root, prefix: joinPath(r.prefix, prefix)}
}

// Find 根据方法与路径查找处理器与参数
func (r *Router[H]) Find(method, path string) (H, map[string]string, bool) {
	var zero H
	segs := splitPath(path)
	params := map[string]string{}
	cur := childBy(r.root, nkStatic, strings.ToUpper(method))
	if cur == nil {
		return zero, nil, false
	}
	for i := 0; i < len(segs); i++ {
		s := segs[i]
		// 先尝试静态匹配
		if next := childBy(cur, nkStatic, s); next != nil {
			cur = next
			continue
		}
		// 其次参数匹配
		if next := childByKind(cur, nkParam); next != nil {
			params[next.label] = s
			cur = next
			continue
		}
		// 最后 wildcard
		if next := childByKind(cur, nkWildcard); next != nil {
			params[WildcardParam] = strings.Join(segs[i:], "/")
			cur = next
			break
		}
		return zero, nil, false
	}
	if !cur.has {
		// 路径完全匹配但无处理器，检查 wildcard 叶子
		wc := childByKind(cur, nkWildcard)
		if wc == nil || !wc.has {
			return zero, nil, false
		}
		params[WildcardParam] = ""
		cur = wc
	}
	return cur.handler, params, true
}

// --- helpers ---

func ensureChild[H any](n *node[H], kind nodeKind, label string) *node[H] {
	if c := childBy(n, kind, label); c != nil {
		return c
	}
	c := &node[H]{kind: kind, label: label}
	n.children = append(n.children, c)
	return c
}

func childBy[H any](n *node[H], kind nodeKind, label string) *node[H] {
	for _, c := range n.children {
		if c.kind == kind && c.label == label {
			return c
		}
	}
	return nil
}

func childByKind[H any](n *node[H], kind nodeKind) *node[H] {
	for _, c := range n.children {
		if c.kind == kind {
			return c
		}
	}
	return nil
}

func splitPath(path string) []string {
	p := strings.Trim(path, "/")
	if p == "" {
		return []string{}
	}
	return strings.Split(p, "/")
}

func joinPath(a, b string) string {
	if a == "/" {
		a = ""
	}
	if b == "/" {
		b = ""
	}
	if a == "" && b == "" {
		return "/"
	}
	if a == "" {
		return ensureSlashPrefix(b)
	}
	if b == "" {
		return ensureSlashPrefix(a)
	}
	return ensureSlashPrefix(strings.TrimRight(a, "/") + "/" + strings.TrimLeft(b, "/"))
}

func ensureSlashPrefix(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}

var _ ziface.Router[int] = (*Router[int])(nil)
