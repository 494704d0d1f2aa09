package messenger

import "github.com/dep2p/go-overlay/pkg/types"

// ============================================================================
//                              状态机
// ============================================================================

// event 状态机事件
type event int

const (
	// evMsgs 有新工作或取得进展
	evMsgs event = iota
	// evSaturated 队列溢出
	evSaturated
	// evIdle 队列已空
	evIdle
	// evUp 传输已连接
	evUp
	// evDown 传输失败或断开
	evDown
	// evClose 调用方请求关闭
	evClose
	// evShut 传输优雅关闭完成
	evShut

	numEvents
)

var eventNames = [numEvents]string{"msgs", "saturated", "idle", "up", "down", "close", "shut"}

func (e event) String() string {
	if e < 0 || e >= numEvents {
		return "unknown"
	}
	return eventNames[e]
}

// action 迁移附带的动作（位掩码）
type action uint8

const (
	// actStart 启动排空
	actStart action = 1 << iota
	// actConnect 发起连接
	actConnect
	// actCloseInput 停止接受新消息
	actCloseInput
	// actCloseOutput 请求传输优雅关闭
	actCloseOutput
	// actFailAll 清空队列并判定全部失败
	actFailAll
)

// transition 迁移表项；next 为 0 表示保持当前状态
type transition struct {
	next types.MessengerState
	acts action
}

// terminate 进入终态统一关闭输入并清空队列
const terminate = actCloseInput | actFailAll

// transitions 迁移表；未列出的（状态，事件）组合不产生迁移也不产生动作
var transitions = map[types.MessengerState]*[numEvents]transition{
	types.Unresolved: {
		evMsgs:      {types.Resolving, actConnect},
		evSaturated: {types.Resolving, actConnect},
		evUp:        {types.Connected, 0},
		evDown:      {types.Broken, terminate},
		evClose:     {types.Closed, terminate | actCloseOutput},
		evShut:      {types.Closed, terminate},
	},
	types.Resolving: {
		evUp:    {types.Sending, actStart},
		evDown:  {types.Broken, terminate},
		evClose: {types.Closing, actCloseInput},
		evShut:  {types.Broken, terminate},
	},
	types.Connected: {
		evMsgs:      {types.Sending, actStart},
		evSaturated: {types.SendingSaturated, actStart},
		evDown:      {types.Unresolved, 0},
		evClose:     {types.Closing, actCloseInput | actStart},
		evShut:      {types.Closed, terminate},
	},
	types.Sending: {
		evSaturated: {types.SendingSaturated, 0},
		evIdle:      {types.Connected, 0},
		evDown:      {types.Resolving, actConnect},
		evClose:     {types.Closing, actCloseInput | actStart},
		evShut:      {types.Resolving, actConnect},
	},
	types.SendingSaturated: {
		evMsgs:  {types.Sending, 0},
		evIdle:  {types.Connected, 0},
		evDown:  {types.Resolving, actConnect},
		evClose: {types.Closing, actCloseInput | actStart},
		evShut:  {types.Resolving, actConnect},
	},
	types.Closing: {
		evUp:   {0, actStart},
		evDown: {types.Broken, terminate},
		evShut: {types.Closed, terminate},
	},
}

// step 查表得到下一状态与动作；终态吸收一切事件
func step(state types.MessengerState, ev event) (types.MessengerState, action) {
	row, ok := transitions[state]
	if !ok || ev < 0 || ev >= numEvents {
		return state, 0
	}
	t := row[ev]
	if t.next == 0 {
		return state, t.acts
	}
	return t.next, t.acts
}
