package main

import (
	"context"

	"github.com/gotomicro/ego"
	"github.com/gotomicro/ego/core/elog"
	"github.com/gotomicro/ego/server"

	"github.com/khetisetu/notification-event-service/internal/ioc"
)

func main() {
	eg := ego.New()

	app := ioc.InitApp()

	err := eg.Invoker(func() error {
		ctx := context.Background()
		for _, c := range app.Consumers {
			c.Start(ctx)
		}
		for _, a := range app.Analytics {
			a.Start(ctx)
		}
		return nil
	}).Serve(func() server.Server {
		return app.WebServer
	}()).Run()
	if err != nil {
		elog.Panic("startup", elog.Any("err", err))
	}
}
