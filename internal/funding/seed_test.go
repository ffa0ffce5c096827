package funding

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/thapelo/proposalhub/internal/model"
)

// TestSeedSources_PopulatesIDAndTimestamps は初期投入される各資金提供元に
// 有効なUUIDとタイムスタンプが採番されることを検証する。
func TestSeedSources_PopulatesIDAndTimestamps(t *testing.T) {
	var upserted []*model.FundingSource
	repo := &mockSourceRepo{
		upsertByNameFn: func(ctx context.Context, source *model.FundingSource) error {
			upserted = append(upserted, source)
			return nil
		},
	}

	if err := SeedSources(context.Background(), repo); err != nil {
		t.Fatalf("SeedSources() error = %v", err)
	}

	if len(upserted) != len(seedSources) {
		t.Fatalf("upserted %d sources, want %d", len(upserted), len(seedSources))
	}
	for _, source := range upserted {
		if _, err := uuid.Parse(source.ID); err != nil {
			t.Errorf("source %q has invalid ID %q: %v", source.Name, source.ID, err)
		}
		if source.CreatedAt.IsZero() {
			t.Errorf("source %q has zero CreatedAt", source.Name)
		}
		if source.UpdatedAt.IsZero() {
			t.Errorf("source %q has zero UpdatedAt", source.Name)
		}
	}
}

// TestSeedSources_DoesNotMutateSeedDefinitions は採番が投入用コピーに対して行われ、
// パッケージ変数のシード定義自体は変更されないことを検証する。
func TestSeedSources_DoesNotMutateSeedDefinitions(t *testing.T) {
	repo := &mockSourceRepo{}

	if err := SeedSources(context.Background(), repo); err != nil {
		t.Fatalf("SeedSources() error = %v", err)
	}

	for _, entry := range seedSources {
		if entry.ID != "" {
			t.Errorf("seed definition %q was mutated: ID = %q", entry.Name, entry.ID)
		}
	}
}

// TestSeedSources_SkipsWhenSourcesExist は既に資金提供元が存在する場合に
// 投入をスキップすることを検証する。
func TestSeedSources_SkipsWhenSourcesExist(t *testing.T) {
	upsertCalls := 0
	repo := &mockSourceRepo{
		countFn: func(ctx context.Context) (int, error) {
			return 5, nil
		},
		upsertByNameFn: func(ctx context.Context, source *model.FundingSource) error {
			upsertCalls++
			return nil
		},
	}

	if err := SeedSources(context.Background(), repo); err != nil {
		t.Fatalf("SeedSources() error = %v", err)
	}
	if upsertCalls != 0 {
		t.Errorf("upsert was called %d times, want 0", upsertCalls)
	}
}

// TestSeedSources_UpsertError はupsert失敗時にエラーを返すことを検証する。
func TestSeedSources_UpsertError(t *testing.T) {
	repo := &mockSourceRepo{
		upsertByNameFn: func(ctx context.Context, source *model.FundingSource) error {
			return errors.New("insert failed")
		},
	}

	if err := SeedSources(context.Background(), repo); err == nil {
		t.Fatal("SeedSources() error = nil, want error")
	}
}

// TestSeedSources_CountError はCount失敗時にエラーを返すことを検証する。
func TestSeedSources_CountError(t *testing.T) {
	repo := &mockSourceRepo{
		countFn: func(ctx context.Context) (int, error) {
			return 0, errors.New("count failed")
		},
	}

	if err := SeedSources(context.Background(), repo); err == nil {
		t.Fatal("SeedSources() error = nil, want error")
	}
}
