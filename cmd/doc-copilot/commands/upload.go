package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
)

// UploadAction はローカルファイルを取り込むコマンドのアクション
func UploadAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	filePath := cmd.String("file")

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("ファイルの読み込みに失敗: %w", err)
	}

	filename := cmd.String("name")
	if filename == "" {
		filename = filepath.Base(filePath)
	}

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	result, err := appCtx.Ingest.Ingest(ctx, content, filename)
	if err != nil {
		return fmt.Errorf("取り込みに失敗: %w", err)
	}

	fmt.Printf("取り込み完了: %s (%s, %d chunks)\n", result.DocumentID, result.Filename, result.Chunks)
	return nil
}
