// Package editor implements the metadata-driven editing core: reading
// whole tables and applying validated partial updates by primary key.
// Every identifier that reaches a statement is first checked against the
// live catalog, then quoted; values only ever travel as bound parameters.
package editor

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/koustreak/DatEd/internal/database"
	"github.com/koustreak/DatEd/internal/errs"
	"github.com/koustreak/DatEd/internal/events"
	"github.com/koustreak/DatEd/internal/logger"
	"github.com/koustreak/DatEd/internal/schema"
)

// Service exposes the editor operations. All methods are safe for
// concurrent use.
type Service struct {
	db        database.DB
	inspector *schema.Inspector
	publisher events.Publisher
	log       *logger.Logger
}

// NewService wires the editor. A nil publisher disables change events.
func NewService(db database.DB, inspector *schema.Inspector, publisher events.Publisher, log *logger.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		db:        db,
		inspector: inspector,
		publisher: publisher,
		log:       log,
	}
}

// Metadata returns the column descriptors and primary key for a table.
// Unknown tables yield an empty descriptor list, not an error.
func (s *Service) Metadata(ctx context.Context, table string) (*schema.Description, error) {
	return s.inspector.Describe(ctx, table)
}

// TableData is the ordered result of reading a whole table: the column
// names in result order plus one map per row.
type TableData struct {
	Table   string           `json:"table"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// FetchAllRows returns every row of a table, unfiltered and unpaginated,
// in database-default order. The table name is re-validated against the
// live table set immediately before the read; values validated earlier in
// the same request are not trusted.
func (s *Service) FetchAllRows(ctx context.Context, table string) (*TableData, error) {
	ok, err := s.inspector.HasTable(ctx, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.New(errs.ErrKindUnknownTable,
			fmt.Sprintf("Table %s does not exist", table))
	}

	rows, err := s.db.Query(ctx, database.SelectAll(s.db.Dialect(), table))
	if err != nil {
		return nil, err
	}

	columns, data, err := database.ScanRows(rows)
	if err != nil {
		return nil, err
	}

	return &TableData{Table: table, Columns: columns, Rows: data}, nil
}

// UpdateRequest is one partial-update command: the record to touch and
// the columns to change.
type UpdateRequest struct {
	Table  string         `json:"table"`
	ID     any            `json:"id"`
	Fields map[string]any `json:"fields"`
}

// UpdateResult reports a successful update.
type UpdateResult struct {
	Message      string `json:"message"`
	RowsAffected int64  `json:"rows_affected"`
}

// UpdateRecord validates and executes a partial update by primary key.
//
// The validation sequence runs in full before any statement touches the
// database: the id must be present, at least one field must be given, the
// table must exist, and every field name must be a column of that table.
// A zero-row update maps to a not-found error, distinct from validation
// failures.
func (s *Service) UpdateRecord(ctx context.Context, req UpdateRequest) (*UpdateResult, error) {
	if req.ID == nil || fmt.Sprint(req.ID) == "" {
		return nil, errs.New(errs.ErrKindMissingID, "No record ID provided")
	}
	if len(req.Fields) == 0 {
		return nil, errs.New(errs.ErrKindNoFields, "No fields to update")
	}

	desc, err := s.inspector.Describe(ctx, req.Table)
	if err != nil {
		return nil, err
	}
	if !desc.Exists() {
		return nil, errs.New(errs.ErrKindUnknownTable,
			fmt.Sprintf("Table %s does not exist", req.Table))
	}

	// Sorted so the generated statement is deterministic.
	names := make([]string, 0, len(req.Fields))
	for name := range req.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !desc.HasColumn(name) {
			return nil, errs.New(errs.ErrKindInvalidColumn,
				fmt.Sprintf("Invalid column name: %s", name))
		}
	}

	builder := database.Update(req.Table, s.db.Dialect())
	for _, name := range names {
		builder.Set(name, bindable(req.Fields[name]))
	}
	builder.Where(desc.PrimaryKey, bindable(req.ID))

	stmt, args, err := builder.Build()
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}

	affected, err := tx.Exec(ctx, stmt, args...)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	if affected == 0 {
		_ = tx.Rollback(ctx)
		return nil, errs.New(errs.ErrKindNotFound, "Record not found")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	recordID := fmt.Sprint(req.ID)
	s.log.With().
		Str("table", req.Table).
		Str("record_id", recordID).
		Int64("rows_affected", affected).
		Logger().Info("record updated")

	// Best effort: a failed publish never fails the update.
	if err := s.publisher.Publish(ctx, events.NewChangeEvent(req.Table, recordID, req.Fields)); err != nil {
		s.log.With().Err(err).Str("table", req.Table).Logger().
			Warn("failed to publish change event")
	}

	return &UpdateResult{
		Message:      fmt.Sprintf("Record %s updated successfully", recordID),
		RowsAffected: affected,
	}, nil
}

// bindable converts decoded JSON values into natural bind parameters.
// JSON numbers arrive as float64; integral ones are bound as int64 so
// integer columns compare and assign cleanly on all three backends.
func bindable(v any) any {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return int64(f)
	}
	return v
}
