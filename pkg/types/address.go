package types

import (
	"fmt"
	"strings"
)

// ============================================================================
//                              EndpointAddress - 端点地址
// ============================================================================

// EndpointAddress 端点地址
//
// 文本形式：protocol://address[/service[/serviceParam]]
//
//	jxta://5Q2STWvBFn.../EndpointService:Group/Param
//	tcp://192.0.2.1:9701
type EndpointAddress struct {
	Protocol     string
	Address      string
	Service      string
	ServiceParam string
}

// ParseEndpointAddress 解析端点地址
func ParseEndpointAddress(s string) (EndpointAddress, error) {
	proto, rest, found := strings.Cut(s, "://")
	if !found || proto == "" || rest == "" {
		return EndpointAddress{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}

	addr := EndpointAddress{Protocol: proto}
	parts := strings.SplitN(rest, "/", 3)
	addr.Address = parts[0]
	if addr.Address == "" {
		return EndpointAddress{}, fmt.Errorf("%w: empty address in %q", ErrInvalidAddress, s)
	}
	if len(parts) > 1 {
		addr.Service = parts[1]
	}
	if len(parts) > 2 {
		addr.ServiceParam = parts[2]
	}
	return addr, nil
}

// MustParseEndpointAddress 解析端点地址，失败时 panic（用于常量和测试）
func MustParseEndpointAddress(s string) EndpointAddress {
	addr, err := ParseEndpointAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// String 返回文本形式
func (a EndpointAddress) String() string {
	var b strings.Builder
	b.WriteString(a.Protocol)
	b.WriteString("://")
	b.WriteString(a.Address)
	if a.Service != "" || a.ServiceParam != "" {
		b.WriteByte('/')
		b.WriteString(a.Service)
	}
	if a.ServiceParam != "" {
		b.WriteByte('/')
		b.WriteString(a.ServiceParam)
	}
	return b.String()
}

// IsZero 检查是否为零值
func (a EndpointAddress) IsZero() bool {
	return a == EndpointAddress{}
}

// WithService 返回替换了服务名与服务参数的地址（重定向目标服务）
//
// service 为空时保留原服务名与参数。
func (a EndpointAddress) WithService(service, param string) EndpointAddress {
	if service == "" {
		return a
	}
	a.Service = service
	a.ServiceParam = param
	return a
}

// Base 返回去掉服务部分的地址（协议 + 地址）
func (a EndpointAddress) Base() EndpointAddress {
	return EndpointAddress{Protocol: a.Protocol, Address: a.Address}
}

// PeerAddress 返回指向节点的 jxta:// 地址
func PeerAddress(id PeerID) EndpointAddress {
	return EndpointAddress{Protocol: "jxta", Address: string(id)}
}
