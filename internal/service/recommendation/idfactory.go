package recommendation

import (
	"github.com/google/uuid"

	"github.com/seu-repo/utility-advisor/internal/ports"
)

// RandomIDFactory issues random v4 identifiers
type RandomIDFactory struct{}

func (RandomIDFactory) NewID(kind, seed string) string {
	return uuid.New().String()
}

// DeterministicIDFactory derives name-based (SHA-1) identifiers from a namespace, so the
// same kind and seed always map to the same id.
type DeterministicIDFactory struct {
	namespace uuid.UUID
}

// NewDeterministicIDFactory scopes ids to a namespace string, e.g. an analysis run key
func NewDeterministicIDFactory(namespace string) *DeterministicIDFactory {
	return &DeterministicIDFactory{namespace: uuid.NewSHA1(uuid.NameSpaceURL, []byte("utility-advisor:"+namespace))}
}

func (f *DeterministicIDFactory) NewID(kind, seed string) string {
	return uuid.NewSHA1(f.namespace, []byte(kind+"/"+seed)).String()
}

var (
	_ ports.IDFactory = RandomIDFactory{}
	_ ports.IDFactory = (*DeterministicIDFactory)(nil)
)
