package storage

import (
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestDecodeIDList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty column", "", []string{}},
		{"empty array", "[]", []string{}},
		{"values", `["a","b"]`, []string{"a", "b"}},
		{"corrupt json degrades to empty", "{not json", []string{}},
		{"wrong type degrades to empty", `{"a":1}`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeIDList(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("DecodeIDList(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("DecodeIDList(%q) = %v, want %v", tt.raw, got, tt.want)
				}
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ids := []string{"123", "456"}
	if got := DecodeIDList(EncodeIDList(ids)); len(got) != 2 || got[0] != "123" {
		t.Fatalf("round trip = %v", got)
	}
	if EncodeIDList(nil) != "[]" {
		t.Fatalf("nil list should encode to [], got %q", EncodeIDList(nil))
	}
}

func TestWithDatasetSerializes(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	// 同一数据集上的读改写序列串行执行
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			repo.WithDataset(DatasetWarnings, func(db *gorm.DB) error {
				v := counter
				counter = v + 1
				return nil
			})
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("counter = %d, want 50 (lost update)", counter)
	}
}

func TestWithDatasetUnknownName(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	// 未注册的数据集名退化为无锁执行，不阻塞也不报错
	called := false
	err := repo.WithDataset("no-such-dataset", func(db *gorm.DB) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("unknown dataset: err=%v called=%v", err, called)
	}
}
