package rest

import (
	"net"

	"github.com/labstack/echo/v4"
)

// NewIPExtractor returns how client addresses are resolved for rate limiting.
// Without trusted proxies the socket address is used and forwarding headers
// are ignored. Otherwise X-Forwarded-For is walked back only through the
// given ranges.
func NewIPExtractor(trustedProxies []*net.IPNet) echo.IPExtractor {
	if len(trustedProxies) == 0 {
		return echo.ExtractIPDirect()
	}

	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, r := range trustedProxies {
		opts = append(opts, echo.TrustIPRange(r))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}
