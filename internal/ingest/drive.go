package ingest

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveSource fetches PDF files from a Google Drive folder.
type DriveSource struct {
	service *drive.Service
	log     *zap.SugaredLogger
}

var _ Source = (*DriveSource)(nil)

func NewDriveSource(ctx context.Context, token *oauth2.Token) (*DriveSource, error) {
	srv, err := drive.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return &DriveSource{
		service: srv,
		log:     zap.S().Named("drive_source"),
	}, nil
}

// Fetch lists the PDF files in the requested folder (or across the whole
// drive when no folder is given) and downloads their contents. A file that
// fails to download is skipped, not fatal.
func (d *DriveSource) Fetch(ctx context.Context, opts FetchOptions) ([]File, error) {
	query := "mimeType='application/pdf' and trashed=false"
	if opts.FolderID != "" {
		query = fmt.Sprintf("'%s' in parents and %s", opts.FolderID, query)
	}

	list, err := d.service.Files.List().Q(query).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	files := []File{}
	for _, f := range list.Files {
		resp, err := d.service.Files.Get(f.Id).Context(ctx).Download()
		if err != nil {
			d.log.Warnf("failed to download file %q (%s): %v", f.Name, f.Id, err)
			continue
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			d.log.Warnf("failed to read file %q (%s): %v", f.Name, f.Id, err)
			continue
		}
		files = append(files, File{Name: f.Name, Data: data})
	}

	return files, nil
}
