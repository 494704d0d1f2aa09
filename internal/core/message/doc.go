// Package message 定义消息与元素的内存模型
//
// 消息是按命名空间分区、保持插入顺序的元素集合。每条消息附带：
//   - 修改计数（ModCount）：每次增删改元素单调递增，序列化快照据此检测并发修改
//   - 旁路属性（Properties）：不上线的本地属性，例如验证结果、投递结果
//
// 元素构造后不可变；嵌套消息元素的负载是另一条完整消息。
package message
