package directory

import (
	"context"
	"errors"

	"answerhub.dev/scribe/internal/model"
)

// ErrDomainNotFound is returned when a domain id resolves to nothing.
var ErrDomainNotFound = errors.New("domain not found")

// Directory maps knowledge domains to their documents and responsible users,
// consumed as an external collaborator.
type Directory interface {
	Resolve(ctx context.Context, domainID string) (*model.KnowledgeDomain, error)
	List(ctx context.Context) ([]model.KnowledgeDomain, error)
	Create(ctx context.Context, domain model.KnowledgeDomain) (*model.KnowledgeDomain, error)
}
