// Package messenger 实现异步信使核心
//
// Core 持有一个有界出站队列、一个连接状态机和单飞（single-flight）的
// 队列排空循环，把消息推给具体传输提供的非阻塞写原语 Transport.TrySend。
// 每条入队消息配一个 Notifier，记录最终投递结果。
//
// # 状态机
//
//	UNRESOLVED ──msgs──▶ RESOLVING ──up──▶ SENDING ⇄ SENDINGSATURATED
//	     ▲                   │                │  ▲          │
//	     └──────down──── CONNECTED ◀──idle────┘  └──msgs────┘
//	                         │ close
//	                         ▼
//	                     CLOSING ──shut──▶ CLOSED
//	                         │ down
//	                         ▼
//	                      BROKEN
//
// 迁移到 CLOSED 或 BROKEN 时关闭输入并让队列中所有消息失败。CLOSED、BROKEN
// 为终态，吸收一切事件。connect 动作在传输未实现 Connector 时立即自发 down
// 事件：核心本身从不发起重连。
//
// # 排空规则
//
// 同一时刻最多一个排空循环。循环查看（不弹出）队首消息并调用 TrySend：
//   - Accepted：弹出，继续
//   - Saturated：停止本轮，队首保留到下一轮，保证顺序且不丢消息
//   - Rejected：弹出并判定失败，继续
//   - 队首已被其他路径（超时、取消）判定失败：弹出，结束本轮并立即重跑一轮
//
// 队列排空且输入已关闭时，请求传输优雅关闭一次。
//
// # 传输回调
//
// 传输在缓冲区恢复可写时调用 PullMessages，在连接建立、失败、优雅关闭
// 完成时分别调用 ConnectionUp、ConnectionFailed、ConnectionClosed。
package messenger
