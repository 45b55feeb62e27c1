package depository

import "context"

// ChannelSource feeds documents that some other code already sends on a
// channel. The first document sent is the one a Feed loads on Start.
type ChannelSource struct {
	ch     <-chan []byte
	direct bool
}

// NewChannelSource relays ch on a goroutine that stops with the Watch context.
func NewChannelSource(ch <-chan []byte) *ChannelSource {
	return &ChannelSource{ch: ch}
}

// NewSyncChannelSource hands ch to the Feed as is, for Feed.SyncMode tests
// that step through documents with Process.
func NewSyncChannelSource(ch <-chan []byte) *ChannelSource {
	return &ChannelSource{ch: ch, direct: true}
}

// Watch implements Source.
func (s *ChannelSource) Watch(ctx context.Context) (<-chan []byte, error) {
	if s.direct {
		return s.ch, nil
	}
	out := make(chan []byte)
	go relay(ctx, s.ch, out)
	return out, nil
}

// relay copies in to out until in closes or ctx ends, then closes out.
func relay(ctx context.Context, in <-chan []byte, out chan<- []byte) {
	defer close(out)
	for {
		var doc []byte
		select {
		case <-ctx.Done():
			return
		case v, ok := <-in:
			if !ok {
				return
			}
			doc = v
		}
		select {
		case out <- doc:
		case <-ctx.Done():
			return
		}
	}
}

var _ Source = (*ChannelSource)(nil)
