package catalog

import (
	"context"

	"ajnadfm/model"
	"ajnadfm/storage"
)

// Searcher is the table-backed lookup surface the resolver needs.
type Searcher interface {
	Search(ctx context.Context, q string, limit int) ([]model.Nasheed, error)
}

// Lister is the bucket-listing surface the resolver needs.
type Lister interface {
	ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error)
}

// DBSource wraps a direct table query: creation time descending,
// case-insensitive substring match on title or artist, capped at limit.
func DBSource(repo Searcher) Source {
	return func(ctx context.Context, q string, _ int, limit int) ([]model.Nasheed, error) {
		return repo.Search(ctx, q, limit)
	}
}

// BucketSource derives catalog entries from a recursive bucket listing.
// Entries are classified as audio by extension; artist and title come
// from the filename, the object path doubles as the id and the source
// locator, and the search filter is applied client-side.
func BucketSource(bucket Lister) Source {
	return func(ctx context.Context, q string, _ int, limit int) ([]model.Nasheed, error) {
		objects, err := bucket.ListObjects(ctx, "")
		if err != nil {
			return nil, err
		}

		items := make([]model.Nasheed, 0, len(objects))
		for _, obj := range objects {
			if !IsAudioFile(obj.Path) {
				continue
			}
			artist, title := ParseFilename(obj.Path)
			modified := obj.LastModified
			items = append(items, model.Nasheed{
				ID:        obj.Path,
				Title:     title,
				Artist:    artist,
				Duration:  nil,
				FileURL:   obj.Path,
				CreatedAt: &modified,
			})
		}

		items = FilterByQuery(items, q)
		if limit > 0 && len(items) > limit {
			items = items[:limit]
		}
		return items, nil
	}
}
