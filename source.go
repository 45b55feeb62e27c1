package depository

import "context"

// Source supplies the raw documents a Feed writes into a Depository.
//
// Watch must send the document as it stands right away, then one document per
// change. The channel closes when ctx ends or the source gives up.
type Source interface {
	Watch(ctx context.Context) (<-chan []byte, error)
}
