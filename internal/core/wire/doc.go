// Package wire 实现消息的二进制线格式（application/x-jxta-msg）
//
// 所有整数均为大端序。
//
// # 消息头
//
//	+--------+---------+----------------+----------------------+-----------+
//	| "jxmg" | version | uint16 nsCount | nsCount × (u16 len,  | uint16    |
//	| 4 byte | 1 byte  |                |  UTF-8 bytes)        | elemCount |
//	+--------+---------+----------------+----------------------+-----------+
//
// 命名空间 id 0 = ""、1 = "jxta" 为隐式项，不出现在表中；额外命名空间按首次使用
// 顺序从 2 开始编号，最多 253 个。
//
// # 元素
//
//	+--------+-------+-------+---------------+----------------+--------------+---------+-------------+
//	| "jxel" | nsId  | flags | u16 len, name | [u16 len, type]| int32 length | payload | [signature] |
//	+--------+-------+-------+---------------+----------------+--------------+---------+-------------+
//
// flags: bit0 显式 MIME 类型，bit1 内容编码（保留，不支持），bit2 携带签名元素。
// 类型为 application/x-jxta-msg 的元素负载是一条完整的嵌套消息；签名元素以同样的
// 元素语法紧随负载之后。
//
// # 解码
//
// elemCount 为 0 表示"读到流末尾"：在元素边界遇到 EOF 时正常结束。元素中途 EOF、
// 未知命名空间 id、元素数量不足均为格式错误，一律返回给调用方。
package wire
