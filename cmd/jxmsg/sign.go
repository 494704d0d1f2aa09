package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dep2p/go-overlay/config"
	"github.com/dep2p/go-overlay/internal/core/cbjx"
	"github.com/dep2p/go-overlay/internal/core/identity"
	"github.com/dep2p/go-overlay/internal/core/message"
	"github.com/dep2p/go-overlay/internal/core/wire"
)

// demoNamespace 命令行工具写入的应用元素命名空间
const demoNamespace = "jxmsg"

func runSign(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	keyFile := fs.String("key", "", "私钥 PEM 文件（不存在时生成）")
	text := fs.String("text", "hello", "消息正文")
	output := fs.String("o", "", "输出文件")
	tls := fs.Bool("tls", false, "来源地址使用 TLS 形式")
	unsigned := fs.Bool("unsigned", false, "只写线格式，不附加认证尾部")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *output == "" {
		return fmt.Errorf("%w: -o is required", errUsage)
	}

	cfg := config.NewConfig()
	msg, err := textMessage(*text)
	if err != nil {
		return err
	}

	var data []byte
	if *unsigned {
		data, err = wire.EncodeToBytes(msg)
	} else {
		cred, cerr := loadCredential(*keyFile, cfg.Identity)
		if cerr != nil {
			return cerr
		}
		signer := cbjx.NewSigner(identity.NewManagerWithCredential(cred), cfg.CBJX)
		signed, serr := signer.SignMessage(msg, *tls)
		if serr != nil {
			return serr
		}
		data, err = signed.Bytes()
		if err == nil {
			fmt.Fprintf(out, "来源: %s\n", signed.Source())
		}
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(*output, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(out, "已写入 %s (%d 字节)\n", *output, len(data))
	return nil
}

func textMessage(text string) (*message.Message, error) {
	msg := message.New()
	el, err := message.NewStringElement("text", text, nil)
	if err != nil {
		return nil, err
	}
	if err := msg.AddElement(demoNamespace, el); err != nil {
		return nil, err
	}
	return msg, nil
}

func loadCredential(path string, cfg config.IdentityConfig) (*identity.Credential, error) {
	validity := cfg.CertValidity.Duration()
	if path == "" {
		return identity.Generate(validity)
	}
	cred, err := identity.LoadKey(path, validity)
	if err == nil {
		return cred, nil
	}
	if !errors.Is(err, identity.ErrKeyNotFound) {
		return nil, err
	}
	cred, err = identity.Generate(validity)
	if err != nil {
		return nil, err
	}
	if err := identity.SaveKey(cred, path); err != nil {
		return nil, err
	}
	log.Info("已生成新密钥", "path", path, "peer", cred.PeerID().ShortString())
	return cred, nil
}
