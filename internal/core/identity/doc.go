// Package identity 提供本地签名凭证
//
// 凭证由一把 Ed25519 私钥和一张用该私钥自签名的 X.509 证书组成，
// 节点标识（PeerID）从证书公钥派生。CBJX 签名器通过
// identity.CredentialSource 获取默认凭证。
//
// # 快速开始
//
//	cred, _ := identity.Generate(24 * time.Hour)
//	sig, _ := cred.Sign(identityif.AlgorithmEd25519, data)
//	fmt.Println(cred.PeerID().URI())
//
// # 持久化
//
// 私钥以 PKCS#8 PEM 格式保存，证书不落盘，每次加载时按私钥重新签发。
// 写文件使用临时文件加 rename，失败时目标文件保持不变。
package identity
