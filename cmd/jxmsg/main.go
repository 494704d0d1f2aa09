// Package main 提供 jxmsg 命令行工具
//
// 子命令：
//
//	jxmsg dump [-verify] [-strict] <file|->   解码线格式消息并打印元素树
//	jxmsg sign [-key file] [-text s] -o out   构造一条签名消息写入文件
//	jxmsg demo [-n 3] [-tamper]               经内存管道收发签名消息
//	jxmsg version
package main

import (
	"errors"
	"fmt"
	"os"

	overlay "github.com/dep2p/go-overlay"
	"github.com/dep2p/go-overlay/internal/util/logger"
)

var log = logger.Logger("cmd/jxmsg")

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			printHelp()
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "dump":
		return runDump(args[1:], os.Stdout)
	case "sign":
		return runSign(args[1:], os.Stdout)
	case "demo":
		return runDemo(args[1:], os.Stdout)
	case "version":
		fmt.Println(overlay.VersionInfo())
		return nil
	case "help", "-h", "-help", "--help":
		printHelp()
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func printHelp() {
	fmt.Println("jxmsg - 覆盖网络消息工具")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  jxmsg dump [-verify] [-strict] <file|->")
	fmt.Println("  jxmsg sign [-key file] [-text s] -o <out>")
	fmt.Println("  jxmsg demo [-n count] [-tamper]")
	fmt.Println("  jxmsg version")
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  OVERLAY_LOG_LEVEL    日志级别，例如 wire=debug,info")
	fmt.Println("  OVERLAY_LOG_FORMAT   text 或 json")
}
