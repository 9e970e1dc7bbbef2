package media

import "testing"

func TestOperationLog_OrderedAndLeveled(t *testing.T) {
	oplog := NewOperationLog()
	oplog.Infof("resolve", "classified %s", "url")
	oplog.Warnf("download", "no declared length")
	oplog.Errorf("store", "put failed")

	entries := oplog.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	wantLevels := []Level{LevelInfo, LevelWarn, LevelError}
	for i, e := range entries {
		if e.Seq != i+1 {
			t.Fatalf("entry %d has seq %d", i, e.Seq)
		}
		if e.Level != wantLevels[i] {
			t.Fatalf("entry %d level = %s, want %s", i, e.Level, wantLevels[i])
		}
		if e.At.IsZero() {
			t.Fatalf("entry %d missing timestamp", i)
		}
	}
	if entries[0].Message != "classified url" {
		t.Fatalf("formatting lost: %q", entries[0].Message)
	}
}

func TestOperationLog_IndependentPerRun(t *testing.T) {
	a := NewOperationLog()
	b := NewOperationLog()
	a.Infof("resolve", "only in a")
	if len(b.Entries()) != 0 {
		t.Fatal("logs must not share state across runs")
	}
}
