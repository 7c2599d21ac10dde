package diag

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorAccumulates(t *testing.T) {
	var c Collector
	c.Report(Diagnostic{Doc: "a.md", Kind: KindBrokenLink, Message: "missing.md not found"})
	c.Report(Diagnostic{Doc: "b.md", Kind: KindMarkup, Message: "unterminated fence", Line: 12})

	all := c.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a.md", all[0].Doc)
	assert.Equal(t, 12, all[1].Line)
}

func TestCollectorByKind(t *testing.T) {
	var c Collector
	c.Report(Diagnostic{Doc: "a.md", Kind: KindBrokenLink})
	c.Report(Diagnostic{Doc: "b.md", Kind: KindRender})
	c.Report(Diagnostic{Doc: "c.md", Kind: KindBrokenLink})

	broken := c.ByKind(KindBrokenLink)
	require.Len(t, broken, 2)
	assert.Equal(t, "a.md", broken[0].Doc)
	assert.Equal(t, "c.md", broken[1].Doc)
}

func TestCollectorConcurrentReport(t *testing.T) {
	var c Collector
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Report(Diagnostic{Kind: KindMarkup})
		}()
	}
	wg.Wait()
	assert.Len(t, c.All(), 50)
}

func TestCollectorReset(t *testing.T) {
	var c Collector
	c.Report(Diagnostic{Kind: KindAudit})
	c.Reset()
	assert.Empty(t, c.All())
}

func TestMultiFansOut(t *testing.T) {
	var a, b Collector
	m := Multi{&a, &b}
	m.Report(Diagnostic{Kind: KindCollection, Doc: "x.md"})
	assert.Len(t, a.All(), 1)
	assert.Len(t, b.All(), 1)
}
