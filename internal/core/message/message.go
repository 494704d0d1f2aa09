package message

import (
	"sync"
	"sync/atomic"
)

// 隐式命名空间
const (
	// NamespaceDefault 空命名空间（线格式 id 0）
	NamespaceDefault = ""

	// NamespaceJXTA 协议保留命名空间（线格式 id 1）
	NamespaceJXTA = "jxta"
)

// NamespacedElement 带命名空间的元素
type NamespacedElement struct {
	Namespace string
	Element   *Element
}

// Message 消息
//
// Message 并发安全。元素按插入顺序保存；同一命名空间内允许重名元素，
// GetElement 返回第一个匹配项。
type Message struct {
	mu       sync.RWMutex
	elements []NamespacedElement

	// modCount 每次修改元素列表时递增
	modCount atomic.Uint64

	propMu sync.RWMutex
	props  map[any]any
}

// New 创建空消息
func New() *Message {
	return &Message{}
}

// AddElement 追加元素
func (m *Message) AddElement(namespace string, el *Element) error {
	if el == nil {
		return ErrNilElement
	}
	m.mu.Lock()
	m.elements = append(m.elements, NamespacedElement{Namespace: namespace, Element: el})
	m.modCount.Add(1)
	m.mu.Unlock()
	return nil
}

// ReplaceElement 替换同命名空间同名的第一个元素，不存在时追加
//
// 返回被替换的旧元素，可能为 nil。
func (m *Message) ReplaceElement(namespace string, el *Element) (*Element, error) {
	if el == nil {
		return nil, ErrNilElement
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.modCount.Add(1)
	for i, ne := range m.elements {
		if ne.Namespace == namespace && ne.Element.Name() == el.Name() {
			old := ne.Element
			m.elements[i].Element = el
			return old, nil
		}
	}
	m.elements = append(m.elements, NamespacedElement{Namespace: namespace, Element: el})
	return nil, nil
}

// RemoveElement 删除同命名空间同名的第一个元素
func (m *Message) RemoveElement(namespace, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, ne := range m.elements {
		if ne.Namespace == namespace && ne.Element.Name() == name {
			m.elements = append(m.elements[:i], m.elements[i+1:]...)
			m.modCount.Add(1)
			return true
		}
	}
	return false
}

// StripElements 删除全部元素
func (m *Message) StripElements() {
	m.mu.Lock()
	m.elements = nil
	m.modCount.Add(1)
	m.mu.Unlock()
}

// GetElement 获取同命名空间同名的第一个元素
func (m *Message) GetElement(namespace, name string) *Element {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ne := range m.elements {
		if ne.Namespace == namespace && ne.Element.Name() == name {
			return ne.Element
		}
	}
	return nil
}

// Elements 返回全部元素的快照（按插入顺序）
func (m *Message) Elements() []NamespacedElement {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]NamespacedElement, len(m.elements))
	copy(out, m.elements)
	return out
}

// Snapshot 原子地返回元素快照及其对应的修改计数
func (m *Message) Snapshot() ([]NamespacedElement, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]NamespacedElement, len(m.elements))
	copy(out, m.elements)
	return out, m.modCount.Load()
}

// ElementsIn 返回指定命名空间内的元素
func (m *Message) ElementsIn(namespace string) []*Element {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Element
	for _, ne := range m.elements {
		if ne.Namespace == namespace {
			out = append(out, ne.Element)
		}
	}
	return out
}

// Namespaces 返回元素使用的命名空间（按首次出现顺序去重）
func (m *Message) Namespaces() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, ne := range m.elements {
		if _, ok := seen[ne.Namespace]; ok {
			continue
		}
		seen[ne.Namespace] = struct{}{}
		out = append(out, ne.Namespace)
	}
	return out
}

// Len 返回元素个数
func (m *Message) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.elements)
}

// ModCount 返回当前修改计数
func (m *Message) ModCount() uint64 {
	return m.modCount.Load()
}

// Clone 复制元素列表（元素不可变，按引用共享）；属性不复制
func (m *Message) Clone() *Message {
	c := New()
	c.elements = m.Elements()
	return c
}

// Equal 结构相等：元素序列（命名空间 + 元素）逐一相等
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	a, b := m.Elements(), other.Elements()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Namespace != b[i].Namespace || !a[i].Element.Equal(b[i].Element) {
			return false
		}
	}
	return true
}
