package datastore

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
)

// DefaultExportBatchSize is used when Export is given a non-positive batch size.
const DefaultExportBatchSize = 1000

// Connector exposes the gorm connection of a store. All backends implement it.
type Connector interface {
	Conn() *gorm.DB
}

// Conn returns the underlying connection.
func (ds *DataStore) Conn() *gorm.DB { return ds.DB }

// TableStats is the outcome of copying one table.
type TableStats struct {
	Table    string        `json:"table"`
	Source   int64         `json:"source"`
	Copied   int64         `json:"copied"`
	Skipped  int64         `json:"skipped"`
	Failed   int64         `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// ExportProgress is called after every batch.
type ExportProgress func(table string, done, total int64)

type tableCopier func(ctx context.Context, src, dst *gorm.DB, batch int, progress ExportProgress) (TableStats, error)

// exportTables follows allModels so parents are copied before children.
var exportTables = []tableCopier{
	copyTable[EnvironmentData],
	copyTable[PestDiseaseData],
	copyTable[PredictionResult],
	copyTable[WarningRecord],
	copyTable[TreatmentPlan],
	copyTable[MarketData],
	copyTable[ProductTraceability],
	copyTable[User],
	copyTable[NotificationSetting],
	copyTable[DeviceStatus],
}

// tableName resolves the table gorm uses for model.
func tableName(db *gorm.DB, model any) string {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return "unknown"
	}
	return stmt.Schema.Table
}

// Export copies every table from src to dst, creating the schema on dst.
// Rows whose primary key already exists on dst are skipped, so an export
// can be resumed. A failed batch is counted and the copy continues.
func Export(ctx context.Context, src, dst Connector, batchSize int, progress ExportProgress) ([]TableStats, error) {
	if batchSize <= 0 {
		batchSize = DefaultExportBatchSize
	}
	from, to := src.Conn(), dst.Conn()
	if from == nil || to == nil {
		return nil, errors.Newf("export needs two open stores").
			Component("datastore").
			Category(errors.CategoryState).
			Build()
	}

	if err := to.AutoMigrate(allModels()...); err != nil {
		return nil, dbError(err, "export_migrate")
	}

	stats := make([]TableStats, 0, len(exportTables))
	for _, copyFn := range exportTables {
		s, err := copyFn(ctx, from, to, batchSize, progress)
		stats = append(stats, s)
		if err != nil {
			return stats, err
		}
		GetLogger().Info("exported table",
			logger.String("table", s.Table),
			logger.Int64("copied", s.Copied),
			logger.Int64("skipped", s.Skipped),
			logger.Int64("failed", s.Failed),
			logger.Duration("duration", s.Duration))
	}
	return stats, nil
}

func copyTable[T any](ctx context.Context, src, dst *gorm.DB, batch int, progress ExportProgress) (TableStats, error) {
	start := time.Now()
	stats := TableStats{Table: tableName(src, new(T))}

	if err := src.WithContext(ctx).Model(new(T)).Count(&stats.Source).Error; err != nil {
		return stats, dbError(err, "export_count")
	}
	if stats.Source == 0 {
		return stats, nil
	}

	var done int64
	table := stats.Table
	err := src.WithContext(ctx).Model(new(T)).FindInBatches(new([]T), batch, func(tx *gorm.DB, _ int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		records := tx.Statement.Dest.(*[]T)
		n := int64(len(*records))

		res := dst.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(records)
		if res.Error != nil {
			stats.Failed += n
			GetLogger().Warn("export batch failed", logger.String("table", table), logger.Error(res.Error))
		} else {
			stats.Copied += res.RowsAffected
			stats.Skipped += n - res.RowsAffected
		}

		done += n
		if progress != nil {
			progress(table, done, stats.Source)
		}
		return nil
	}).Error
	stats.Duration = time.Since(start)
	if err != nil {
		return stats, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("table", table).
			Timing("export_copy", stats.Duration).
			Build()
	}
	return stats, nil
}

// TableCount compares row counts of one table.
type TableCount struct {
	Table  string `json:"table"`
	Source int64  `json:"source"`
	Target int64  `json:"target"`
}

// Match reports whether both sides hold the same number of rows.
func (c TableCount) Match() bool { return c.Source == c.Target }

// VerifyExport counts the rows of every exported table on both stores.
func VerifyExport(ctx context.Context, src, dst Connector) ([]TableCount, error) {
	counts := make([]TableCount, 0, len(exportTables))
	for _, model := range allModels() {
		c := TableCount{Table: tableName(src.Conn(), model)}
		if err := src.Conn().WithContext(ctx).Model(model).Count(&c.Source).Error; err != nil {
			return counts, dbError(err, "verify_count")
		}
		if err := dst.Conn().WithContext(ctx).Model(model).Count(&c.Target).Error; err != nil {
			return counts, dbError(err, "verify_count")
		}
		counts = append(counts, c)
	}
	return counts, nil
}
