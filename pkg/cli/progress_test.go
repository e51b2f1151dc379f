package cli

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

// ============================================================================
// Progress
// ============================================================================

func TestProgress_Render(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "trials")

	p.Start(4)
	p.Done(true)
	p.Done(false)
	p.Done(true)
	p.Done(true)
	p.Finish()

	out := buf.String()
	if !strings.Contains(out, "trials [") {
		t.Errorf("Expected label in output, got %q", out)
	}
	if !strings.Contains(out, "4/4 (1 failed)") {
		t.Errorf("Expected final counts, got %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Expected Finish to end the line")
	}
}

func TestProgress_Concurrent(t *testing.T) {
	p := NewProgress(nil, "x")
	p.Start(100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p.Done(i%10 != 0)
		}(i)
	}
	wg.Wait()

	done, failed := p.Counts()
	if done != 100 {
		t.Errorf("Expected 100 done, got %d", done)
	}
	if failed != 10 {
		t.Errorf("Expected 10 failed, got %d", failed)
	}
}

func TestProgress_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "x")

	p.Start(0)
	p.Done(true)
	p.Finish()

	if strings.Contains(buf.String(), "[") {
		t.Errorf("Expected no bar for zero total, got %q", buf.String())
	}
}
