package bot

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// telegramFiles downloads documents through the Bot API file endpoint
type telegramFiles struct {
	bot *telego.Bot
}

func (f telegramFiles) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	file, err := f.bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	data, err := tu.DownloadFile(f.bot.FileDownloadURL(file.FilePath))
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	return data, nil
}
