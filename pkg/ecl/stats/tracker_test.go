package stats

import (
	"sync"
	"testing"
	"time"
)

func TestTracker_Empty(t *testing.T) {
	s := NewTracker().Snapshot()
	if s.TotalCommandsParsed != 0 || s.SuccessRate != 0 || s.AverageParseTimeMs != 0 {
		t.Errorf("Expected zero snapshot, got %+v", s)
	}
}

func TestTracker_Record(t *testing.T) {
	tr := NewTracker()
	tr.Record(Observation{Success: true, CommandType: "ALERT", Duration: 2 * time.Millisecond})
	tr.Record(Observation{Success: true, CommandType: "QUERY", Duration: 4 * time.Millisecond})
	tr.Record(Observation{Success: false, Duration: 0, ErrorsByStage: map[string]int{"parser": 2}})
	tr.Record(Observation{Success: true, CommandType: "ALERT", Duration: 2 * time.Millisecond})

	s := tr.Snapshot()
	if s.TotalCommandsParsed != 4 {
		t.Errorf("Expected 4 parses, got %d", s.TotalCommandsParsed)
	}
	if s.Successful != 3 || s.Failed != 1 {
		t.Errorf("Expected 3/1, got %d/%d", s.Successful, s.Failed)
	}
	if s.SuccessRate != 75 {
		t.Errorf("Expected 75%% success rate, got %v", s.SuccessRate)
	}
	if s.AverageParseTimeMs != 2 {
		t.Errorf("Expected 2ms average, got %v", s.AverageParseTimeMs)
	}
	if s.ByCommandType["ALERT"] != 2 || s.ByCommandType["QUERY"] != 1 {
		t.Errorf("Unexpected command counts %v", s.ByCommandType)
	}
	if s.ErrorsByStage["parser"] != 2 {
		t.Errorf("Expected 2 parser errors, got %d", s.ErrorsByStage["parser"])
	}
	if s.LastParsedAt.IsZero() {
		t.Error("Expected LastParsedAt to be set")
	}
}

func TestTracker_SnapshotIsCopy(t *testing.T) {
	tr := NewTracker()
	tr.Record(Observation{Success: true, CommandType: "HELP"})

	s := tr.Snapshot()
	s.ByCommandType["HELP"] = 100

	if got := tr.Snapshot().ByCommandType["HELP"]; got != 1 {
		t.Errorf("Snapshot mutation leaked into tracker: %d", got)
	}
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	tr.Record(Observation{Success: true, CommandType: "HELP"})
	tr.Reset()

	if s := tr.Snapshot(); s.TotalCommandsParsed != 0 || len(s.ByCommandType) != 0 {
		t.Errorf("Expected empty tracker after reset, got %+v", s)
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker()
	const workers, perWorker = 20, 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				tr.Record(Observation{Success: true, CommandType: "STATUS"})
			}
		}()
	}
	wg.Wait()

	if got := tr.Snapshot().TotalCommandsParsed; got != workers*perWorker {
		t.Errorf("Expected %d parses, got %d", workers*perWorker, got)
	}
}
