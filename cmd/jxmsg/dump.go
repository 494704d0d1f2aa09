package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/dep2p/go-overlay/config"
	"github.com/dep2p/go-overlay/internal/core/cbjx"
	"github.com/dep2p/go-overlay/internal/core/message"
	"github.com/dep2p/go-overlay/internal/core/wire"
)

// previewLimit 打印负载预览的最大字节数
const previewLimit = 48

func runDump(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	verify := fs.Bool("verify", false, "按 CBJX 认证尾部验证")
	strict := fs.Bool("strict", false, "元素数为 0 时不读取后续元素")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: dump needs exactly one file", errUsage)
	}

	data, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}

	var msg *message.Message
	if *verify {
		cfg := config.NewConfig()
		v, err := cbjx.NewVerifier(cfg.CBJX, cfg.Wire)
		if err != nil {
			return err
		}
		msg, err = v.Verify(data)
		if err != nil {
			return fmt.Errorf("解码失败: %w", err)
		}
		printVerification(out, msg)
	} else {
		var opts []wire.DecodeOption
		if *strict {
			opts = append(opts, wire.WithStrictCount())
		}
		cr := wire.NewCountingReader(bytes.NewReader(data))
		msg, err = wire.Decode(cr, opts...)
		if err != nil {
			return fmt.Errorf("解码失败: %w", err)
		}
		if rest := int64(len(data)) - cr.Count(); rest > 0 {
			fmt.Fprintf(out, "线格式 %d 字节, 其后 %d 字节未验证（可用 -verify 验证 CBJX 尾部）\n", cr.Count(), rest)
		}
	}

	printMessage(out, msg, 0)
	return nil
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func printVerification(out io.Writer, msg *message.Message) {
	if !cbjx.IsVerified(msg) {
		fmt.Fprintln(out, "验证: 失败（消息已清空）")
		return
	}
	fmt.Fprintln(out, "验证: 通过")
	for _, addr := range cbjx.VerifiedAddresses(msg) {
		fmt.Fprintf(out, "  来源 %s\n", addr)
	}
	for _, cert := range cbjx.VerifiedCertificates(msg) {
		fmt.Fprintf(out, "  证书 %s (至 %s)\n", cert.Subject.CommonName, cert.NotAfter.Format("2006-01-02"))
	}
}

// printMessage 按缩进打印元素树
func printMessage(out io.Writer, msg *message.Message, depth int) {
	indent := strings.Repeat("  ", depth)
	if depth == 0 {
		fmt.Fprintf(out, "消息: %d 个元素, 命名空间 %v\n", msg.Len(), msg.Namespaces())
	}
	for _, ne := range msg.Elements() {
		printElement(out, ne.Namespace+":"+ne.Element.Name(), ne.Element, depth+1)
	}
	if depth == 0 && msg.Len() == 0 {
		fmt.Fprintf(out, "%s  (空)\n", indent)
	}
}

func printElement(out io.Writer, label string, el *message.Element, depth int) {
	indent := strings.Repeat("  ", depth)
	if el.IsNested() {
		fmt.Fprintf(out, "%s%s [%s] 嵌套 %d 个元素\n", indent, label, el.MimeType(), el.Message().Len())
		printMessage(out, el.Message(), depth+1)
	} else {
		fmt.Fprintf(out, "%s%s [%s] %d 字节 %s\n", indent, label, el.MimeType(), len(el.Bytes()), preview(el.Bytes()))
	}
	if sig := el.Signature(); sig != nil {
		printElement(out, "签名 "+sig.Name(), sig, depth+1)
	}
}

func preview(b []byte) string {
	short := b
	if len(short) > previewLimit {
		short = short[:previewLimit]
	}
	if utf8.Valid(short) && !bytes.ContainsFunc(short, func(r rune) bool { return r < 0x20 && r != '\t' }) {
		s := fmt.Sprintf("%q", short)
		if len(b) > previewLimit {
			s += "..."
		}
		return s
	}
	s := fmt.Sprintf("% x", short)
	if len(b) > previewLimit {
		s += " ..."
	}
	return s
}
