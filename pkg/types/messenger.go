package types

import "strings"

// ============================================================================
//                              MessengerState - 信使状态
// ============================================================================

// MessengerState 信使连接状态（位掩码）
//
// 单个信使任一时刻只处于一个状态；组合掩码用于 WaitState 等按集合匹配的场景。
type MessengerState uint16

// 基本状态
const (
	// Unresolved 尚未解析/连接（或连接已断开，下一次发送将尝试重连）
	Unresolved MessengerState = 1 << iota
	// Resolving 正在建立连接，消息排队等待
	Resolving
	// Connected 已连接且队列空闲
	Connected
	// Sending 已连接且正在排空队列
	Sending
	// SendingSaturated 正在排空，且队列曾经溢出
	SendingSaturated
	// Closing 已拒绝新消息，正在排空剩余消息
	Closing
	// Closed 正常关闭（终态）
	Closed
	// Broken 异常断开（终态）
	Broken
)

// 组合掩码
const (
	// TerminalStates 终态
	TerminalStates = Closed | Broken

	// SendableStates 可向传输写入的状态
	SendableStates = Connected | Sending | SendingSaturated | Closing

	// UsableStates 仍可接受新消息的状态
	UsableStates = Unresolved | Resolving | Connected | Sending | SendingSaturated

	// IdleStates 队列无待发送消息的稳定状态
	IdleStates = Unresolved | Connected | Closed | Broken
)

var stateNames = []struct {
	state MessengerState
	name  string
}{
	{Unresolved, "UNRESOLVED"},
	{Resolving, "RESOLVING"},
	{Connected, "CONNECTED"},
	{Sending, "SENDING"},
	{SendingSaturated, "SENDINGSATURATED"},
	{Closing, "CLOSING"},
	{Closed, "CLOSED"},
	{Broken, "BROKEN"},
}

// Is 检查状态是否落在掩码内
func (s MessengerState) Is(mask MessengerState) bool {
	return s&mask != 0
}

// IsTerminal 检查是否为终态
func (s MessengerState) IsTerminal() bool {
	return s.Is(TerminalStates)
}

// String 返回状态名，组合掩码以 | 连接
func (s MessengerState) String() string {
	if s == 0 {
		return "NONE"
	}
	var names []string
	for _, sn := range stateNames {
		if s&sn.state != 0 {
			names = append(names, sn.name)
		}
	}
	return strings.Join(names, "|")
}
