// Package types 定义 overlay 的基础数据类型
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - ids.go       - PeerID（由证书公钥派生的节点标识）
//   - base58.go    - Base58 编解码
//   - address.go   - EndpointAddress（proto://addr/service/param）
//   - messenger.go - MessengerState 位掩码状态
//   - events.go    - 事件总线事件类型
//   - mime.go      - 元素 MIME 类型常量
//   - errors.go    - 公共错误定义
package types
