package perf

import (
	"expvar"

	"github.com/encodeous/metric"
)

var (
	MessagesSent      = metric.NewCounter("10s1s")
	MessagesDelivered = metric.NewCounter("10s1s")
	LinkEvents        = metric.NewCounter("10s1s")
)

func init() {
	expvar.Publish("routesim:MessagesSent", MessagesSent)
	expvar.Publish("routesim:MessagesDelivered", MessagesDelivered)
	expvar.Publish("routesim:LinkEvents", LinkEvents)
}
