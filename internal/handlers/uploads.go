package handlers

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"path"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/logging"
)

// maxUploadMemory is the in-memory threshold for multipart parsing; larger
// parts spill to temp files.
const maxUploadMemory = 32 << 20

// storeUpload streams one multipart part into blob storage under a fresh key
// and returns its public URL. The original extension is kept so the serving
// layer can infer content types.
func storeUpload(ctx context.Context, storage BlobStorage, prefix string, file multipart.File, header *multipart.FileHeader) (string, error) {
	defer file.Close()

	key := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), path.Ext(header.Filename))
	url, err := storage.Upload(ctx, key, file)
	if err != nil {
		return "", fmt.Errorf("store upload %s: %w", key, err)
	}
	return url, nil
}

// optionalUpload stores the named multipart field if it was provided.
// Returns the empty string when the field is absent.
func optionalUpload(ctx context.Context, storage BlobStorage, r *http.Request, field, prefix string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", fmt.Errorf("read %s part: %w", field, err)
	}
	return storeUpload(ctx, storage, prefix, file, header)
}

// discardBlob deletes a stored object during failure cleanup; the failure it
// accompanies is what the caller reports, so errors here are only logged.
func discardBlob(ctx context.Context, storage BlobStorage, url string) {
	if url == "" {
		return
	}
	if err := storage.Delete(ctx, url); err != nil {
		logging.FromContext(ctx).Warn("orphaned blob not cleaned up", "url", url, "error", err)
	}
}
