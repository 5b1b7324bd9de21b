package utils

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// ExtractClientIP trả về IP thật của client.
// X-Forwarded-For / X-Real-IP chỉ được tin khi request đi qua proxy nội bộ
// (RemoteAddr là private IP), nếu không client có thể tự đổi IP để né login throttle
func ExtractClientIP(c *gin.Context) string {
	remote := remoteIP(c.Request.RemoteAddr)

	if IsPrivateIP(remote) {
		// Format: "client, proxy1, proxy2"
		if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
			first := strings.TrimSpace(strings.Split(xff, ",")[0])
			if isValidIP(first) {
				return first
			}
		}
		if xri := strings.TrimSpace(c.GetHeader("X-Real-IP")); isValidIP(xri) {
			return xri
		}
	}

	if isValidIP(remote) {
		return remote
	}
	return "127.0.0.1"
}

// remoteIP bỏ port khỏi "IP:port" hoặc "[IPv6]:port"
func remoteIP(addr string) string {
	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return ip
}

func isValidIP(ip string) bool {
	return ip != "" && net.ParseIP(ip) != nil
}

var privateBlocks = func() []*net.IPNet {
	cidrs := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "127.0.0.0/8", "fc00::/7"}
	blocks := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, block, _ := net.ParseCIDR(cidr)
		blocks = append(blocks, block)
	}
	return blocks
}()

// IsPrivateIP kiểm tra loopback / private range (IPv4 + IPv6 ULA)
func IsPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	if parsed.IsLoopback() {
		return true
	}
	for _, block := range privateBlocks {
		if block.Contains(parsed) {
			return true
		}
	}
	return false
}
