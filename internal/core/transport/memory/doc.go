// Package memory 实现进程内的内存传输
//
// NewPipe 创建一对相连的端点，每个端点实现 messenger.Transport，可直接交给
// messenger.NewCore。出站消息在 TrySend 中编码为线格式字节（配置了签名器时
// 附加 CBJX 尾部）放入有界帧缓冲；对端读循环解码（配置了验证器时先验证），
// 投递到收件箱，并以此回报该消息的投递结果。
//
// 帧缓冲满时 TrySend 返回 Saturated，对端取走一帧后回调 PullMessages。
// Break 模拟传输死亡：两端未投递的帧全部失败，两端信使收到 ConnectionFailed。
//
// 仅用于测试与演示，不是网络传输。
package memory
