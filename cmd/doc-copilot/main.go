package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/jinford/doc-copilot/cmd/doc-copilot/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 構造化ログの設定
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	envFlag := &cli.StringFlag{
		Name:  "env",
		Usage: "環境変数ファイルパス",
		Value: ".env",
	}

	app := &cli.Command{
		Name:  "doc-copilot",
		Usage: "ドキュメントQ&Aバックエンド（アップロード・検索・質問応答）",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "HTTP APIサーバーを起動",
				Flags: []cli.Flag{
					envFlag,
					&cli.StringFlag{
						Name:  "addr",
						Usage: "リッスンアドレス（未指定時はHTTP_ADDRを使用）",
					},
				},
				Action: commands.ServeAction,
			},
			{
				Name:  "upload",
				Usage: "ローカルファイルを取り込み",
				Flags: []cli.Flag{
					envFlag,
					&cli.StringFlag{
						Name:     "file",
						Usage:    "取り込むファイルパス",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "登録するファイル名（未指定時はファイルパスの末尾）",
					},
				},
				Action: commands.UploadAction,
			},
			{
				Name:  "documents",
				Usage: "ドキュメント管理コマンド",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "ドキュメント一覧を表示",
						Flags:  []cli.Flag{envFlag},
						Action: commands.DocumentListAction,
					},
					{
						Name:  "delete",
						Usage: "ドキュメントを削除",
						Flags: []cli.Flag{
							envFlag,
							&cli.StringFlag{
								Name:     "id",
								Usage:    "ドキュメントID",
								Required: true,
							},
						},
						Action: commands.DocumentDeleteAction,
					},
				},
			},
			{
				Name:  "ask",
				Usage: "取り込み済みドキュメントに基づいて質問に回答",
				Flags: []cli.Flag{
					envFlag,
					&cli.StringFlag{
						Name:     "question",
						Usage:    "質問文",
						Required: true,
					},
				},
				Action: commands.AskAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatalf("エラー: %v", err)
	}
}
