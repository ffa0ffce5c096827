package funding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/thapelo/proposalhub/internal/model"
	"github.com/thapelo/proposalhub/internal/repository"
)

// seedSources は初期投入する南アフリカの主要な資金提供元。
var seedSources = []*model.FundingSource{
	{
		Name:                "National Empowerment Fund (NEF)",
		Description:         "Funding for black-owned businesses in South Africa",
		AmountRange:         "R 50,000 - R 150,000,000",
		EligibilityCriteria: []string{"Black ownership required", "South African registration", "B-BBEE compliance"},
		IndustryFocus:       []string{"Technology", "Manufacturing", "Agribusiness", "Tourism", "Education"},
		ContactWebsite:      "https://www.nefcorp.co.za",
		IsActive:            true,
	},
	{
		Name:                "IDC - Industrial Development Corporation",
		Description:         "Development finance for industrial and manufacturing projects in South Africa",
		AmountRange:         "R 500,000 - R 1,000,000,000",
		EligibilityCriteria: []string{"Business plan required", "Sustainable business model", "Job creation potential"},
		IndustryFocus:       []string{"Manufacturing", "Mining", "Infrastructure", "Energy", "Agro-processing"},
		ContactWebsite:      "https://www.idc.co.za",
		IsActive:            true,
	},
	{
		Name:                "Technology Innovation Agency (TIA)",
		Description:         "Support for technology and innovation projects in South Africa",
		AmountRange:         "R 100,000 - R 50,000,000",
		EligibilityCriteria: []string{"Technology focus", "Innovation required", "Commercial potential"},
		IndustryFocus:       []string{"Technology", "Innovation", "R&D", "Biotechnology", "ICT"},
		ContactWebsite:      "https://www.tia.org.za",
		IsActive:            true,
	},
	{
		Name:                "Small Enterprise Development Agency (SEDA)",
		Description:         "Business development support and funding for small enterprises",
		AmountRange:         "R 10,000 - R 5,000,000",
		EligibilityCriteria: []string{"Small business registration", "Business plan", "Growth potential"},
		IndustryFocus:       []string{"All sectors", "Small business", "Entrepreneurship", "Micro-enterprises"},
		ContactWebsite:      "https://www.seda.org.za",
		IsActive:            true,
	},
	{
		Name:                "Land Bank of South Africa",
		Description:         "Agricultural and agribusiness finance solutions",
		AmountRange:         "R 25,000 - R 500,000,000",
		EligibilityCriteria: []string{"Agriculture focus", "Farm ownership or lease", "Viable business plan"},
		IndustryFocus:       []string{"Agriculture", "Agribusiness", "Farming", "Food processing"},
		ContactWebsite:      "https://www.landbank.co.za",
		IsActive:            true,
	},
}

// SeedSources は主要な資金提供元を投入する。
// 既に1件でも資金提供元が存在する場合は何もしない。
// 初回投入時は各エントリにUUIDとタイムスタンプを採番し、名前をキーにupsertする。
func SeedSources(ctx context.Context, repo repository.FundingSourceRepository) error {
	count, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count funding sources: %w", err)
	}
	if count > 0 {
		slog.Info("funding sources already exist, skipping seed", slog.Int("count", count))
		return nil
	}

	now := time.Now()
	for _, entry := range seedSources {
		source := *entry
		source.ID = uuid.New().String()
		source.CreatedAt = now
		source.UpdatedAt = now
		if err := repo.UpsertByName(ctx, &source); err != nil {
			return fmt.Errorf("failed to seed funding source %s: %w", source.Name, err)
		}
	}

	slog.Info("funding sources seeded", slog.Int("count", len(seedSources)))
	return nil
}
