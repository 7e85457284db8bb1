package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/jinford/doc-copilot/internal/core/ingest"
)

// DocumentListAction はドキュメント一覧を表示するコマンドのアクション
func DocumentListAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	docs, err := appCtx.Ingest.List(ctx)
	if err != nil {
		return fmt.Errorf("ドキュメント一覧の取得に失敗: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println("ドキュメントはありません")
		return nil
	}

	renderDocumentsTable(docs)
	return nil
}

// DocumentDeleteAction はドキュメントを削除するコマンドのアクション
func DocumentDeleteAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	documentID := cmd.String("id")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Ingest.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("ドキュメントの削除に失敗: %w", err)
	}

	fmt.Printf("削除完了: %s\n", documentID)
	return nil
}

// renderDocumentsTable はテーブル形式でドキュメント一覧を表示します
func renderDocumentsTable(docs []*ingest.Document) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Document ID", "Filename", "Chunks", "Uploaded At")

	for _, doc := range docs {
		table.Append(
			doc.ID,
			doc.Filename,
			fmt.Sprintf("%d", doc.TotalChunks),
			doc.UploadedAt.Format("2006-01-02 15:04"),
		)
	}

	table.Render()
}
