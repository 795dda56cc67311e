package usecase

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
)

type Upload struct {
	Name string
	Data []byte
}

type PhotoUsecase struct {
	storage domain.Storage
	logger  *logger.Logger
}

func NewPhotoUsecase(storage domain.Storage, log *logger.Logger) *PhotoUsecase {
	return &PhotoUsecase{storage: storage, logger: log.Named("photo_usecase")}
}

// UploadImages stores every file and returns the URL of the first one, which the client
// then sets as the listing image.
func (uc *PhotoUsecase) UploadImages(ctx context.Context, files []Upload) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("%w: no files uploaded", domain.ErrInvalidArgument)
	}
	urls := make([]string, 0, len(files))
	for _, f := range files {
		if len(f.Data) == 0 {
			return "", fmt.Errorf("%w: file %q is empty", domain.ErrInvalidArgument, f.Name)
		}
		url, err := uc.storage.Upload(ctx, f.Name, f.Data)
		if err != nil {
			uc.logger.Error("image upload failed", zap.String("file", f.Name), zap.Error(err))
			return "", fmt.Errorf("%w: upload %s: %w", domain.ErrStoreFailure, f.Name, err)
		}
		urls = append(urls, url)
	}
	uc.logger.Info("images uploaded", zap.Int("count", len(urls)))
	return urls[0], nil
}
