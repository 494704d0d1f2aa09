// Package cbjx 实现基于证书的消息认证尾部（CBJX）
//
// 出站：在线格式编码后的消息字节之后追加尾部
//
//	┌──────────┬──────────────┬──────────┬─────────────┬──────────┬───────────┐
//	│ 4B 长度  │ 证书 DER     │ 4B 长度  │ 源标识      │ 4B 长度  │ 签名      │
//	└──────────┴──────────────┴──────────┴─────────────┴──────────┴───────────┘
//
// 签名覆盖：未签名消息字节 ‖ 证书 DER ‖ 源标识（均不含长度前缀），算法固定为 Ed25519。
// 签名失败不会中止发送，签名字段退化为零长度，接收方验证必然失败。
//
// 入站：Verifier.Verify 依次检查
//  1. 证书自签名
//  2. 外层签名
//  3. 源标识与证书公钥派生的标识一致（RequireCBID）
//  4. 若携带 jxta:EndpointRouterMsg 转发信封，再对信封做一次同样的验证，
//     并要求信封声明的原始发送方 jxta:Src 等于内层证书派生的标识
//
// 任何认证失败都不返回错误，而是返回一条空消息：没有元素，只有两个空的
// 验证集合属性。只有外层消息本身的格式错误才作为错误返回。
//
// 验证成功后，源地址与签名证书追加到消息的验证集合属性中，集合只增不减，
// 多层验证（外层 + 转发信封）的结果都会记录在同一条消息上。
package cbjx
