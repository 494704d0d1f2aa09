package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	overlay "github.com/dep2p/go-overlay"
	"github.com/dep2p/go-overlay/internal/core/cbjx"
	"github.com/dep2p/go-overlay/internal/core/transport/memory"
	"github.com/dep2p/go-overlay/internal/core/wire"
	"github.com/dep2p/go-overlay/pkg/types"
)

// demoTimeout 整个演示的时间上限
const demoTimeout = 30 * time.Second

func runDemo(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	count := fs.Int("n", 3, "发送的消息数")
	tamper := fs.Bool("tamper", false, "额外演示一条被篡改的帧")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *count < 1 {
		return fmt.Errorf("%w: -n must be positive", errUsage)
	}

	ctx, cancel := context.WithTimeout(context.Background(), demoTimeout)
	defer cancel()

	alice, err := overlay.New(overlay.WithoutMetrics())
	if err != nil {
		return err
	}
	defer alice.Close()
	bob, err := overlay.New(overlay.WithoutMetrics())
	if err != nil {
		return err
	}
	defer bob.Close()

	fmt.Fprintf(out, "alice: %s\n", alice.ID().ShortString())
	fmt.Fprintf(out, "bob:   %s\n", bob.ID().ShortString())

	aEnd, bEnd := memory.NewPipe(
		memory.EndpointConfig{Address: alice.Address(), Signer: alice.Signer(), Verifier: alice.Verifier()},
		memory.EndpointConfig{Address: bob.Address(), Signer: bob.Signer(), Verifier: bob.Verifier()},
	)

	m, err := alice.NewMessenger(bob.Address(), aEnd)
	if err != nil {
		return err
	}

	for i := 0; i < *count; i++ {
		msg, err := textMessage(fmt.Sprintf("message %d", i+1))
		if err != nil {
			return err
		}
		if err := m.SendBlocking(ctx, msg, "demo", ""); err != nil {
			return fmt.Errorf("发送第 %d 条失败: %w", i+1, err)
		}

		d, err := bEnd.Receive(ctx)
		if err != nil {
			return err
		}
		text := ""
		if el := d.Message.GetElement(demoNamespace, "text"); el != nil {
			text = el.Text()
		}
		fmt.Fprintf(out, "[%d] %q %d 字节, 已验证来源 %v\n", i+1, text, d.Size, cbjx.VerifiedAddresses(d.Message))
	}

	m.Close()
	state, err := m.WaitState(ctx, types.TerminalStates)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "信使状态: %s\n", state)

	if *tamper {
		return demoTamper(out, alice, bob)
	}
	return nil
}

func demoTamper(out io.Writer, alice, bob *overlay.Peer) error {
	msg, err := textMessage("tampered")
	if err != nil {
		return err
	}
	unsigned, err := wire.EncodeToBytes(msg)
	if err != nil {
		return err
	}
	data, err := alice.Sign(msg)
	if err != nil {
		return err
	}
	// 签名字节以线格式开头：翻转最后一个负载字节，尾部保持不变
	data[len(unsigned)-1] ^= 0xff

	got, err := bob.Verify(data)
	if err != nil {
		fmt.Fprintf(out, "篡改帧: 格式错误 %v\n", err)
		return nil
	}
	fmt.Fprintf(out, "篡改帧: 已验证=%t, 剩余元素 %d\n", cbjx.IsVerified(got), got.Len())
	return nil
}
