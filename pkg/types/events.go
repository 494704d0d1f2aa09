package types

// ============================================================================
//                              事件类型
// ============================================================================

// EvtMessengerStateChanged 信使状态变更事件
//
// 由信使核心在每次状态迁移后发出（仅当状态确实发生变化）。
type EvtMessengerStateChanged struct {
	// MessengerID 信使实例标识
	MessengerID string

	// Destination 信使目标地址
	Destination EndpointAddress

	// Old 迁移前状态
	Old MessengerState

	// New 迁移后状态
	New MessengerState
}

// EvtMessageVerificationFailed 入站消息验证失败事件
//
// 验证失败是数据而非错误：消息本身已被替换为空消息，此事件仅供观测。
type EvtMessageVerificationFailed struct {
	// Step 失败步骤
	Step string

	// Reason 失败原因
	Reason string
}
