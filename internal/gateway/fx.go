package gateway

import (
	"github.com/brightstack/coursekart/internal/gateway/razorpay"
	"go.uber.org/fx"
)

var Module = fx.Module("gateway.client",
	fx.Provide(razorpay.New),
)
