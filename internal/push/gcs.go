package push

import (
	"context"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSStore lists conversation attachments from a Cloud Storage bucket.
// Objects live under {root}/{subfolder}/{file}.
type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (g *GCSStore) List(ctx context.Context, root string) ([]Folder, error) {
	prefix := strings.TrimSuffix(root, "/") + "/"
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	byFolder := make(map[string][]string)
	var order []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		rel := strings.TrimPrefix(attrs.Name, prefix)
		parts := strings.SplitN(rel, "/", 2)
		if len(parts) != 2 || parts[1] == "" {
			continue
		}
		if _, seen := byFolder[parts[0]]; !seen {
			order = append(order, parts[0])
		}
		byFolder[parts[0]] = append(byFolder[parts[0]], parts[1])
	}

	folders := make([]Folder, 0, len(order))
	for _, name := range order {
		folders = append(folders, Folder{Name: name, Files: byFolder[name]})
	}
	return folders, nil
}
