package benchmark

import (
	"context"
	"fmt"
	"testing"
)

// BenchmarkPipelineSetItem measures compaction plus an encrypted write.
// Each iteration writes a new value so deduplication does not apply.
func BenchmarkPipelineSetItem(b *testing.B) {
	c := newPipeline(b)
	ctx := context.Background()
	values := make([]string, 64)
	for i := range values {
		values[i] = sessionPayload(512)
	}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		c.SetItem(ctx, "session", values[i%len(values)])
	}
}

// BenchmarkPipelineSetItemDuplicate measures the deduplicated write path.
func BenchmarkPipelineSetItemDuplicate(b *testing.B) {
	c := newPipeline(b)
	ctx := context.Background()
	value := sessionPayload(512)
	c.SetItem(ctx, "session", value)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		c.SetItem(ctx, "session", value)
	}
}

// BenchmarkPipelineGetItemParallel measures concurrent reads of a few hot
// keys, where read coalescing is expected to absorb most store hits.
func BenchmarkPipelineGetItemParallel(b *testing.B) {
	c := newPipeline(b)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		c.SetItem(ctx, fmt.Sprintf("session-%d", i), sessionPayload(256))
	}
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if _, _, err := c.GetItem(ctx, fmt.Sprintf("session-%d", i%4)); err != nil {
				b.Error(err)
				return
			}
			i++
		}
	})
}
