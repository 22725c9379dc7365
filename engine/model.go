package engine

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/dialect"
	"github.com/Konsultn-Engineering/postmodel/errs"
	"github.com/Konsultn-Engineering/postmodel/executor"
	"github.com/Konsultn-Engineering/postmodel/query"
)

// CreateTable creates the table for model.
func (e *Engine) CreateTable(ctx context.Context, model any, ifNotExists bool) error {
	stmt, err := e.models.CreateTable(model, ifNotExists)
	if err != nil {
		return err
	}
	_, err = e.Exec(ctx, query.Node(stmt))
	return err
}

// Create inserts the struct ptr points to, or every element of the slice it
// points to. Database-assigned keys are written back into the structs.
func (e *Engine) Create(ctx context.Context, ptr any) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Kind() == reflect.Slice {
		createAll := func(ctx context.Context) error {
			items := rv.Elem()
			for i := 0; i < items.Len(); i++ {
				item := items.Index(i)
				if item.Kind() != reflect.Ptr {
					item = item.Addr()
				}
				if err := e.createOne(ctx, item.Interface()); err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
			}
			return nil
		}
		if e.exec.InTx(ctx) {
			return createAll(ctx)
		}
		return e.InTransaction(ctx, createAll)
	}
	return e.createOne(ctx, ptr)
}

func (e *Engine) createOne(ctx context.Context, ptr any) error {
	ins, err := e.models.Insert(ptr)
	if err != nil {
		return err
	}
	m, err := e.models.Model(ptr)
	if err != nil {
		return err
	}
	pk := m.PrimaryKey
	if pk == nil || !pk.Tag.Auto || slices.Contains(ins.Stmt().Columns, pk.Column) {
		_, err := e.Exec(ctx, ins)
		return err
	}

	if e.Dialect().Supports(dialect.FeatureReturning) {
		q, err := e.Render(ins.Returning(pk.Column))
		if err != nil {
			return err
		}
		row, err := e.exec.Insert(ctx, q)
		if err != nil || row == nil {
			return err
		}
		return e.models.ScanRow(*row, ptr)
	}

	// Without RETURNING the key is read back on the same connection.
	q, err := e.Render(ins)
	if err != nil {
		return err
	}
	return e.exec.Do(ctx, func(s *executor.Session) error {
		if _, err := s.Exec(ctx, q); err != nil {
			return err
		}
		rs, err := s.Execute(ctx, e.Raw("SELECT LAST_INSERT_ID() AS "+e.Dialect().QuoteIdentifier(pk.Column)))
		if err != nil {
			return err
		}
		if len(rs.Rows) == 0 {
			return fmt.Errorf("%w: no insert id returned", errs.ErrOperational)
		}
		return e.models.ScanRow(rs.Rows[0], ptr)
	})
}

// Find loads every row of dest's model matching conds into the slice dest
// points to.
func (e *Engine) Find(ctx context.Context, dest any, conds ...ast.Node) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("%w: Find expects a pointer to a slice, got %T", errs.ErrInvalidQueryShape, dest)
	}
	sel, err := e.models.Select(rv.Elem().Type().Elem())
	if err != nil {
		return err
	}
	if len(conds) > 0 {
		sel = sel.Where(conds...)
	}
	if m, _ := e.models.Model(rv.Elem().Type().Elem()); m != nil && m.PrimaryKey != nil {
		sel = sel.OrderByAsc(m.PrimaryKey.Column)
	}
	rs, err := e.Query(ctx, sel)
	if err != nil {
		return err
	}
	return e.models.ScanAll(rs, dest)
}

// Get loads the single row matching conds into ptr. It fails with
// errs.ErrNoRows when nothing matches.
func (e *Engine) Get(ctx context.Context, ptr any, conds ...ast.Node) error {
	sel, err := e.models.Select(ptr)
	if err != nil {
		return err
	}
	if len(conds) > 0 {
		sel = sel.Where(conds...)
	}
	rs, err := e.Query(ctx, sel.Limit(2))
	if err != nil {
		return err
	}
	switch len(rs.Rows) {
	case 0:
		return errs.ErrNoRows
	case 1:
		return e.models.ScanRow(rs.Rows[0], ptr)
	}
	return fmt.Errorf("%w: more than one row matched", errs.ErrIntegrity)
}

// Save updates every column of the struct's row, matched on its primary key.
// It returns errs.ErrNoRows when no row has that key.
func (e *Engine) Save(ctx context.Context, ptr any) error {
	upd, err := e.models.Update(ptr)
	if err != nil {
		return err
	}
	n, err := e.Exec(ctx, upd)
	if err == nil && n == 0 {
		return errs.ErrNoRows
	}
	return err
}

// Delete removes the struct's row, matched on its primary key.
func (e *Engine) Delete(ctx context.Context, ptr any) error {
	del, err := e.models.Delete(ptr)
	if err != nil {
		return err
	}
	_, err = e.Exec(ctx, del)
	return err
}

// Upsert inserts the struct, or on a conflict over conflictColumns updates
// every other column except the primary key and auto_now_add fields.
func (e *Engine) Upsert(ctx context.Context, ptr any, conflictColumns ...string) error {
	ins, err := e.models.Insert(ptr)
	if err != nil {
		return err
	}
	m, err := e.models.Model(ptr)
	if err != nil {
		return err
	}
	var update []string
	for _, col := range ins.Stmt().Columns {
		f, _ := m.Field(col)
		if f == m.PrimaryKey || f.Tag.AutoNowAdd || slices.Contains(conflictColumns, col) {
			continue
		}
		update = append(update, col)
	}
	if len(update) == 0 {
		ins = ins.OnConflictDoNothing(conflictColumns...)
	} else {
		ins = ins.OnConflictUpdate(conflictColumns, update...)
	}
	_, err = e.Exec(ctx, ins)
	return err
}
