package service

import (
	"net"
	"strings"
)

// UnknownIP подставляется, когда адрес клиента определить нельзя
const UnknownIP = "0.0.0.0"

// ResolveClientIP: первый адрес из X-Forwarded-For, затем адрес соединения, затем UnknownIP
func ResolveClientIP(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if remoteAddr != "" {
		if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
			if host != "" {
				return host
			}
		} else {
			return remoteAddr
		}
	}

	return UnknownIP
}

// ResolveReferrer nil, если заголовок Referer пуст или отсутствует
func ResolveReferrer(header string) *string {
	if header == "" {
		return nil
	}
	return &header
}
