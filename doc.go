// Package overlay 提供点对点覆盖网络的端点消息子系统
//
// 覆盖网络中的节点在 TCP、HTTP、中继、TLS 等异构传输上交换结构化消息。
// 本包把各子系统组装为一个 Peer：
//
//   - wire: jxmg/jxel 二进制线格式编解码
//   - cbjx: 基于证书的消息认证尾部，验证发送者身份（含经路由器转发的消息）
//   - messenger: 异步信使核心，有界队列、连接状态机与投递结果通知
//   - identity: 本地凭证（ed25519 密钥与自签名证书）
//   - metrics: Prometheus 指标
//
// # 快速开始
//
//	peer, err := overlay.New(overlay.WithKeyFile("peer.key"))
//	if err != nil {
//	    return err
//	}
//	defer peer.Close()
//
//	// 任意实现 messenger.Transport 的传输
//	m, err := peer.NewMessenger(dest, transport)
//	if err != nil {
//	    return err
//	}
//	err = m.SendBlocking(ctx, msg, "Chat", "")
//
//	// 接收端
//	verified, err := peer.Verify(data)
//	if err != nil {
//	    return err // 格式错误
//	}
//	if !cbjx.IsVerified(verified) {
//	    // 认证失败：verified 是不含任何元素的空消息
//	}
//
// # 文件组织
//
//   - overlay.go: 版本信息
//   - peer.go: Peer 门面
//   - options.go: 用户选项
//   - fx.go: fx 应用组装
//   - errors.go: 公共错误
package overlay
