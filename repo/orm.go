// Package repo ignore_security_alert_file SQL_INJECTION
package repo

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/ayushbirla71/survey-backend/config"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const defaultOrderBy = "create_time DESC, id DESC"

type txKey struct{}

type txState struct {
	db *gorm.DB

	mu          sync.Mutex
	afterCommit []func(ctx context.Context)
}

type TxService interface {
	RunTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type BaseRepo interface {
	TxService

	Create(ctx context.Context, model interface{}) error
	CreateMany(ctx context.Context, model interface{}, data interface{}) error
	Get(ctx context.Context, model interface{}, f *Filter) error
	GetMany(ctx context.Context, model interface{}, f *Filter) ([]interface{}, *Pagination, error)
	Count(ctx context.Context, model interface{}, f *Filter) (uint64, error)
	Delete(ctx context.Context, model interface{}, f *Filter) (uint64, error)
	Avg(ctx context.Context, model interface{}, field string, f *Filter) (float64, error)
	Sum(ctx context.Context, model interface{}, field string, f *Filter) (uint64, error)
	// GroupCount counts rows per non-null value of field, largest groups first. A limit of 0 keeps every group.
	GroupCount(ctx context.Context, model interface{}, field string, f *Filter, limit int) ([]*GroupCount, error)
	Update(ctx context.Context, model interface{}) error
	// UpdateWhere applies updates to every row matching f and reports how many rows changed.
	// A condition on the current status turns it into a compare-and-set.
	UpdateWhere(ctx context.Context, model interface{}, f *Filter, updates map[string]interface{}) (uint64, error)
	// AfterCommit runs fn once the outermost transaction in ctx commits, or right away outside one.
	// Hooks are dropped when the transaction rolls back.
	AfterCommit(ctx context.Context, fn func(ctx context.Context))
	AutoMigrate(ctx context.Context, models ...interface{}) error
	Close(ctx context.Context) error
}

type GroupCount struct {
	Value string
	Count uint64
}

type baseRepo struct {
	db *gorm.DB
}

func NewBaseRepo(ctx context.Context, mysqlCfg config.MySQL) (BaseRepo, error) {
	db, err := gorm.Open(mysql.Open(mysqlCfg.ToDSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if mysqlCfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(mysqlCfg.MaxOpenConns)
	}
	if mysqlCfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(mysqlCfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	// the database may come up after the service in local and compose setups
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(func() error {
		if err := sqlDB.PingContext(ctx); err != nil {
			log.Ctx(ctx).Warn().Msgf("ping metadata db failed, retrying: %v", err)
			return err
		}
		return nil
	}, b); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping metadata db: %w", err)
	}

	return NewBaseRepoWithDB(db), nil
}

func NewBaseRepoWithDB(db *gorm.DB) BaseRepo {
	return &baseRepo{
		db: db,
	}
}

func (r *baseRepo) Create(ctx context.Context, data interface{}) error {
	return r.getDb(ctx).Create(data).Error
}

func (r *baseRepo) CreateMany(ctx context.Context, model interface{}, data interface{}) error {
	return r.getDb(ctx).Model(model).Create(data).Error
}

func (r *baseRepo) Count(ctx context.Context, model interface{}, f *Filter) (uint64, error) {
	var count int64
	if err := where(r.getDb(ctx).Model(model), f).Count(&count).Error; err != nil {
		return 0, err
	}
	return uint64(count), nil
}

func (r *baseRepo) Delete(ctx context.Context, model interface{}, f *Filter) (uint64, error) {
	sqlQuery, args := ToSqlWithArgs(f)
	if sqlQuery == "" {
		return 0, fmt.Errorf("refusing to delete %T without conditions", model)
	}

	res := r.getDb(ctx).Where(sqlQuery, args...).Delete(model)
	if res.Error != nil {
		return 0, res.Error
	}
	return uint64(res.RowsAffected), nil
}

func (r *baseRepo) Avg(ctx context.Context, model interface{}, field string, f *Filter) (float64, error) {
	var avg sql.NullFloat64
	if err := where(r.getDb(ctx).Model(model), f).
		Select(fmt.Sprintf("avg(%s)", field)).
		Scan(&avg).Error; err != nil {
		return 0, err
	}

	if !avg.Valid {
		return 0, nil
	}

	return avg.Float64, nil
}

func (r *baseRepo) Sum(ctx context.Context, model interface{}, field string, f *Filter) (uint64, error) {
	var sum sql.NullInt64
	if err := where(r.getDb(ctx).Model(model), f).
		Select(fmt.Sprintf("sum(%s)", field)).
		Scan(&sum).Error; err != nil {
		return 0, err
	}

	if !sum.Valid || sum.Int64 < 0 {
		return 0, nil
	}

	return uint64(sum.Int64), nil
}

func (r *baseRepo) GroupCount(ctx context.Context, model interface{}, field string, f *Filter, limit int) ([]*GroupCount, error) {
	query := where(r.getDb(ctx).Model(model), f).
		Select(fmt.Sprintf("%s AS value, count(*) AS count", field)).
		Where(fmt.Sprintf("%s IS NOT NULL", field)).
		Group(field).
		Order("count DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var groups []*GroupCount
	if err := query.Scan(&groups).Error; err != nil {
		return nil, err
	}

	return groups, nil
}

func (r *baseRepo) Get(ctx context.Context, model interface{}, f *Filter) error {
	query := where(r.getDb(ctx).Model(model), f)
	if f != nil && len(f.Fields) > 0 {
		query = query.Select(f.Fields)
	}
	return query.First(model).Error
}

func (r *baseRepo) GetMany(ctx context.Context, model interface{}, f *Filter) ([]interface{}, *Pagination, error) {
	if f == nil {
		f = new(Filter)
	}

	query := where(r.getDb(ctx).Model(model), f)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, nil, err
	}

	pagination := f.Pagination
	if pagination == nil {
		pagination = new(Pagination)
	}

	var (
		limit = pagination.GetLimit()
		page  = pagination.GetPage()
	)
	if page == 0 {
		page = 1
	}

	orderBy := f.OrderBy
	if orderBy == "" {
		orderBy = defaultOrderBy
	}

	query = where(r.getDb(ctx).Model(model), f).Order(orderBy)
	if limit > 0 {
		query = query.Offset(int((page - 1) * limit)).Limit(int(limit + 1))
	}

	var (
		modelElem = reflect.TypeOf(model).Elem()
		queryRes  = reflect.New(reflect.SliceOf(modelElem)).Interface()
	)
	if err := query.Find(queryRes).Error; err != nil {
		return nil, nil, err
	}

	var (
		resElem = reflect.ValueOf(queryRes).Elem()
		res     = make([]interface{}, resElem.Len())
	)
	for i := 0; i < resElem.Len(); i++ {
		res[i] = resElem.Index(i).Addr().Interface() // return addr
	}

	var hasNext bool
	if limit > 0 && len(res) > int(limit) {
		hasNext = true
		res = res[:limit]
	}

	return res, &Pagination{
		Page:    goutil.Uint32(page),
		Limit:   pagination.Limit,
		HasNext: goutil.Bool(hasNext),
		Total:   goutil.Uint32(uint32(count)),
	}, nil
}

func (r *baseRepo) Update(ctx context.Context, model interface{}) error {
	return r.getDb(ctx).Updates(model).Error
}

func (r *baseRepo) UpdateWhere(ctx context.Context, model interface{}, f *Filter, updates map[string]interface{}) (uint64, error) {
	sqlQuery, args := ToSqlWithArgs(f)
	if sqlQuery == "" {
		return 0, fmt.Errorf("refusing to update %T without conditions", model)
	}

	res := r.getDb(ctx).Model(model).Where(sqlQuery, args...).Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return uint64(res.RowsAffected), nil
}

func (r *baseRepo) AutoMigrate(ctx context.Context, models ...interface{}) error {
	return r.getDb(ctx).AutoMigrate(models...)
}

func (r *baseRepo) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.hasTx(ctx) {
		return fn(ctx)
	}

	state := new(txState)
	if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state.db = tx
		return fn(context.WithValue(ctx, txKey{}, state))
	}); err != nil {
		return err
	}

	for _, hook := range state.afterCommit {
		hook(ctx)
	}

	return nil
}

func (r *baseRepo) AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	state, ok := ctx.Value(txKey{}).(*txState)
	if !ok {
		fn(ctx)
		return
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	state.afterCommit = append(state.afterCommit, fn)
}

func (r *baseRepo) Close(_ context.Context) error {
	if r.db != nil {
		sqlDB, err := r.db.DB()
		if err != nil {
			return err
		}

		if err := sqlDB.Close(); err != nil {
			return err
		}
	}
	return nil
}

func (r *baseRepo) getDb(ctx context.Context) *gorm.DB {
	if state, ok := ctx.Value(txKey{}).(*txState); ok {
		return state.db
	}
	return r.db.WithContext(ctx)
}

func (r *baseRepo) hasTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*txState)
	return ok
}

func where(db *gorm.DB, f *Filter) *gorm.DB {
	sqlQuery, args := ToSqlWithArgs(f)
	if sqlQuery == "" {
		return db
	}
	return db.Where(sqlQuery, args...)
}
