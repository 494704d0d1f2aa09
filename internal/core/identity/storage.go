package identity

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const pemTypePrivateKey = "PRIVATE KEY"

// ============================================================================
//                              私钥持久化
// ============================================================================

// SaveKey 保存凭证私钥到 PEM 文件（PKCS#8，权限 0600）
func SaveKey(cred *Credential, path string) error {
	if cred == nil {
		return ErrNilPrivateKey
	}
	der, err := x509.MarshalPKCS8PrivateKey(cred.privateKey())
	if err != nil {
		return fmt.Errorf("编码私钥失败: %w", err)
	}
	data := pem.EncodeToMemory(&pem.Block{Type: pemTypePrivateKey, Bytes: der})
	return atomicWriteFile(path, data, 0600)
}

// LoadKey 从 PEM 文件加载私钥并签发证书
func LoadKey(path string, validity time.Duration) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemTypePrivateKey {
		return nil, ErrInvalidPEM
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPEM, err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
	}
	return FromPrivateKey(priv, validity)
}

// ============================================================================
//                              原子写操作
// ============================================================================

// atomicWriteFile 原子写文件
//
// 流程：
//  1. 写入同目录临时文件（前缀 .tmp-）
//  2. 同步到磁盘并设置权限
//  3. rename 到目标路径
//
// 任何步骤失败，目标文件保持不变。
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("同步临时文件失败: %w", err)
	}
	if err := tmpFile.Chmod(perm); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("设置文件权限失败: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("原子 rename 失败: %w", err)
	}

	success = true
	return nil
}
