package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jinford/doc-copilot/internal/core/chat"
)

// AskAction は質問応答を実行するコマンドのアクション
func AskAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	question := cmd.String("question")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	result, err := appCtx.Chat.Ask(ctx, chat.Params{Question: question})
	if err != nil {
		return fmt.Errorf("回答の生成に失敗: %w", err)
	}

	fmt.Println(result.Answer)

	if len(result.Sources) > 0 {
		fmt.Println("\n--- 出典 ---")
		for _, source := range result.Sources {
			fmt.Printf("  %s (score: %.3f)\n", source.Filename, source.Score)
		}
	}

	return nil
}
