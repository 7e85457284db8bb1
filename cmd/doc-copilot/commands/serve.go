package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/jinford/doc-copilot/internal/interface/httpapi"
)

// ServeAction はHTTP APIサーバーを起動するコマンドのアクション
func ServeAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	addr := cmd.String("addr")
	if addr == "" {
		addr = appCtx.Config.HTTPAddr
	}

	handler := httpapi.NewHandler(appCtx.Ingest, appCtx.Chat, appCtx.Fetcher,
		httpapi.WithHandlerLogger(appCtx.Logger))
	server := httpapi.NewServer(handler, httpapi.WithLogger(appCtx.Logger))

	return server.ListenAndServe(addr)
}
