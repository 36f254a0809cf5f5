package wiki

import "context"

// Persister durably stores and reloads the complete wiki document.
type Persister interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}
