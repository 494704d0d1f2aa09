// Package interfaces 定义 overlay 的公共接口
//
// 具体实现位于 internal/core 下，通过 fx 模块注入：
//   - eventbus.go          - 事件总线
//   - identity/            - 签名凭证（由外部成员/身份子系统提供）
package interfaces
