package store

import (
	"sync"
	"testing"

	"cloudspend/internal/core"
)

func rec(id string, date core.Date, cost float64) core.SpendRecord {
	return core.SpendRecord{
		ID:       id,
		Date:     date,
		Provider: core.AWS,
		Service:  "EC2",
		Team:     "Platform",
		Env:      core.EnvProd,
		CostUSD:  cost,
	}
}

func TestStoreOrdersByDateDescending(t *testing.T) {
	s := New()
	s.SetInitial([]core.SpendRecord{
		rec("a", core.NewDate(2024, 1, 1), 1),
		rec("b", core.NewDate(2024, 3, 1), 2),
		rec("c", core.NewDate(2024, 2, 1), 3),
	})
	got := s.Records()
	if got[0].ID != "b" || got[1].ID != "c" || got[2].ID != "a" {
		t.Fatalf("order = %s,%s,%s; want b,c,a", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestStoreStableTiesKeepArrivalOrder(t *testing.T) {
	day := core.NewDate(2024, 1, 15)
	s := New()
	s.SetInitial([]core.SpendRecord{
		rec("first", day, 1),
		rec("second", day, 2),
		rec("third", day, 3),
	})
	got := s.Records()
	if got[0].ID != "first" || got[1].ID != "second" || got[2].ID != "third" {
		t.Fatalf("ties reordered: %s,%s,%s", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestStoreUploadedMarker(t *testing.T) {
	s := New()
	if s.Uploaded() {
		t.Fatal("fresh store must not be marked uploaded")
	}
	s.Replace([]core.SpendRecord{rec("a", core.NewDate(2024, 1, 1), 1)})
	if !s.Uploaded() {
		t.Fatal("Replace must set the uploaded marker")
	}
	s.SetInitial(nil)
	if s.Uploaded() {
		t.Fatal("SetInitial must clear the uploaded marker")
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}
}

func TestStoreSnapshotIsolation(t *testing.T) {
	s := New()
	s.SetInitial([]core.SpendRecord{rec("a", core.NewDate(2024, 1, 1), 1)})
	snap := s.Records()
	snap[0].ID = "mutated"
	if s.Records()[0].ID != "a" {
		t.Fatal("caller mutation leaked into the store")
	}
}

func TestStoreConcurrentReadersDuringSwap(t *testing.T) {
	s := New()
	before := []core.SpendRecord{rec("a", core.NewDate(2024, 1, 1), 1)}
	after := []core.SpendRecord{
		rec("b", core.NewDate(2024, 2, 1), 2),
		rec("c", core.NewDate(2024, 2, 2), 3),
	}
	s.SetInitial(before)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				got := s.Records()
				// A reader sees either the full old set or the full new
				// set, never a torn one.
				if n := len(got); n != 1 && n != 2 {
					t.Errorf("torn snapshot of length %d", n)
					return
				}
			}
		}()
	}
	for j := 0; j < 100; j++ {
		s.Replace(after)
		s.SetInitial(before)
	}
	wg.Wait()
}
