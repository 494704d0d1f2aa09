package message

// ============================================================================
//                              旁路属性
// ============================================================================

// 属性不参与序列化，也不影响 ModCount。键建议使用包私有类型以避免冲突：
//
//	type outcomeKey struct{}
//	msg.SetProperty(outcomeKey{}, outcome)

// SetProperty 设置属性，返回旧值
func (m *Message) SetProperty(key, value any) any {
	m.propMu.Lock()
	defer m.propMu.Unlock()

	if m.props == nil {
		m.props = make(map[any]any)
	}
	old := m.props[key]
	m.props[key] = value
	return old
}

// GetProperty 获取属性
func (m *Message) GetProperty(key any) any {
	m.propMu.RLock()
	defer m.propMu.RUnlock()
	return m.props[key]
}

// PropertyOrInit 获取属性，不存在时以 init() 的结果原子地初始化
func (m *Message) PropertyOrInit(key any, init func() any) any {
	m.propMu.Lock()
	defer m.propMu.Unlock()

	if v, ok := m.props[key]; ok {
		return v
	}
	if m.props == nil {
		m.props = make(map[any]any)
	}
	v := init()
	m.props[key] = v
	return v
}

// DeleteProperty 删除属性
func (m *Message) DeleteProperty(key any) {
	m.propMu.Lock()
	delete(m.props, key)
	m.propMu.Unlock()
}

// ClearProperties 删除全部属性
func (m *Message) ClearProperties() {
	m.propMu.Lock()
	m.props = nil
	m.propMu.Unlock()
}

// PropertyKeys 返回全部属性键
func (m *Message) PropertyKeys() []any {
	m.propMu.RLock()
	defer m.propMu.RUnlock()

	keys := make([]any, 0, len(m.props))
	for k := range m.props {
		keys = append(keys, k)
	}
	return keys
}
