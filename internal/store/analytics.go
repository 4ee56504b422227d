package store

import (
	"context"
	"fmt"

	"github.com/ppiankov/satyamitra/internal/model"
)

// hourExpr extracts the two-digit hour of the history timestamp for the active dialect
func (s *Store) hourExpr() string {
	if s.driver == "mysql" {
		return "DATE_FORMAT(timestamp, '%H')"
	}
	return "STRFTIME('%H', timestamp)"
}

// Analytics aggregates history and source logs for the dashboard
func (s *Store) Analytics(ctx context.Context) (*model.Analytics, error) {
	db := s.db.WithContext(ctx)
	out := &model.Analytics{
		VerdictBreakdown: make(map[string]int, len(model.AllVerdicts)),
		Recent:           []model.RecentVerification{},
		Origins:          []model.OriginCount{},
		SourceAccuracy:   make(map[string]map[string]int),
		RoleBreakdown:    make(map[string]int),
		HourlyCounts:     make(map[string]int, 24),
	}

	var total int64
	if err := db.Model(&VerificationHistory{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count history: %w", err)
	}
	out.TotalVerifications = int(total)

	type bucketCount struct {
		Bucket string
		Count  int
	}

	// every verdict appears, even with zero runs
	for _, v := range model.AllVerdicts {
		out.VerdictBreakdown[string(v)] = 0
	}
	var verdicts []bucketCount
	if err := db.Model(&VerificationHistory{}).
		Select("verdict AS bucket, COUNT(*) AS count").
		Group("verdict").
		Scan(&verdicts).Error; err != nil {
		return nil, fmt.Errorf("verdict breakdown: %w", err)
	}
	for _, v := range verdicts {
		out.VerdictBreakdown[v.Bucket] = v.Count
	}

	var recent []VerificationHistory
	if err := db.Order("timestamp DESC").Order("id DESC").Limit(5).Find(&recent).Error; err != nil {
		return nil, fmt.Errorf("recent history: %w", err)
	}
	for _, r := range recent {
		out.Recent = append(out.Recent, model.RecentVerification{
			ID:        r.ID,
			UserID:    r.UserID,
			ClaimText: r.ClaimText,
			Verdict:   r.Verdict,
			Timestamp: r.Timestamp.Format("2006-01-02 15:04:05"),
		})
	}

	if err := db.Model(&VerificationHistory{}).
		Select("origin_city AS city, origin_country AS country, COUNT(*) AS count").
		Group("origin_city, origin_country").
		Order("count DESC").
		Scan(&out.Origins).Error; err != nil {
		return nil, fmt.Errorf("origin breakdown: %w", err)
	}

	var sources []struct {
		SourceIdentifier string
		Verdict          string
		Count            int
	}
	if err := db.Model(&SourceLog{}).
		Select("source_identifier, verdict, COUNT(*) AS count").
		Group("source_identifier, verdict").
		Scan(&sources).Error; err != nil {
		return nil, fmt.Errorf("source breakdown: %w", err)
	}
	for _, src := range sources {
		byVerdict, ok := out.SourceAccuracy[src.SourceIdentifier]
		if !ok {
			byVerdict = make(map[string]int)
			out.SourceAccuracy[src.SourceIdentifier] = byVerdict
		}
		byVerdict[src.Verdict] = src.Count
	}

	var roles []bucketCount
	if err := db.Model(&VerificationHistory{}).
		Select("user_role AS bucket, COUNT(*) AS count").
		Group("user_role").
		Scan(&roles).Error; err != nil {
		return nil, fmt.Errorf("role breakdown: %w", err)
	}
	for _, r := range roles {
		out.RoleBreakdown[r.Bucket] = r.Count
	}

	for h := 0; h < 24; h++ {
		out.HourlyCounts[fmt.Sprintf("%02d", h)] = 0
	}
	var hours []bucketCount
	if err := db.Model(&VerificationHistory{}).
		Select(s.hourExpr() + " AS bucket, COUNT(*) AS count").
		Group("bucket").
		Scan(&hours).Error; err != nil {
		return nil, fmt.Errorf("hourly breakdown: %w", err)
	}
	for _, h := range hours {
		if h.Bucket != "" {
			out.HourlyCounts[h.Bucket] = h.Count
		}
	}

	return out, nil
}
