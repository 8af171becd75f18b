package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Filter 筛选器接口
type Filter interface {
	Apply(db *gorm.DB) *gorm.DB
}

// FilterFunc 函数形式的筛选器
type FilterFunc func(db *gorm.DB) *gorm.DB

// Apply 实现 Filter
func (f FilterFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// Order 排序参数
type Order struct {
	Field string
	Sort  string
}

// Orders 排序参数切片
type Orders []Order

// TxConfigurer 事务配置接口
type TxConfigurer interface {
	SetTx(tx *gorm.DB)
	GetTx() *gorm.DB
}

// TxConfig 事务配置
type TxConfig struct {
	tx *gorm.DB
}

// SetTx 设置事务
func (c *TxConfig) SetTx(tx *gorm.DB) {
	c.tx = tx
}

// GetTx 获取事务
func (c *TxConfig) GetTx() *gorm.DB {
	return c.tx
}

// QueryOption 查询选项
type QueryOption func(*QueryConfig)

// QueryConfig 查询配置
type QueryConfig struct {
	TxConfig
}

// WithQueryTx 在事务中查询
func WithQueryTx(tx *gorm.DB) QueryOption {
	return func(c *QueryConfig) { c.SetTx(tx) }
}

// DeleteOption 删除选项
type DeleteOption func(*DeleteConfig)

// DeleteConfig 删除配置
type DeleteConfig struct {
	TxConfig
}

// WithDeleteTx 在事务中删除
func WithDeleteTx(tx *gorm.DB) DeleteOption {
	return func(c *DeleteConfig) { c.SetTx(tx) }
}

// BaseRepository 基础DAO层
type BaseRepository[T any] struct {
	Db *gorm.DB
}

// NewBaseRepository 创建基础DAO层
func NewBaseRepository[T any](db *gorm.DB) *BaseRepository[T] {
	return &BaseRepository[T]{
		Db: db,
	}
}

// Delete 按筛选条件删除记录，返回删除数量
// filter 为空时删除全部记录
func (r *BaseRepository[T]) Delete(ctx context.Context, filter Filter, opts ...DeleteOption) (int64, error) {
	cfg := &DeleteConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	query := r.getDb(cfg).WithContext(ctx)

	if filter != nil {
		query = filter.Apply(query)
	} else {
		query = query.Where("1 = 1")
	}

	res := query.Delete(new(T))
	return res.RowsAffected, res.Error
}

// FindAll 查询所有记录
func (r *BaseRepository[T]) FindAll(ctx context.Context, filter Filter, orders Orders, opts ...QueryOption) ([]*T, error) {
	list := make([]*T, 0)
	query := r.buildQuery(ctx, opts...).Model(new(T))

	if filter != nil {
		query = filter.Apply(query)
	}

	for _, order := range orders {
		query = query.Order(order.Field + " " + order.Sort)
	}

	if err := query.Find(&list).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return list, nil
}

// Count 统计记录数量
func (r *BaseRepository[T]) Count(ctx context.Context, filter Filter, opts ...QueryOption) (int64, error) {
	var count int64
	query := r.buildQuery(ctx, opts...).Model(new(T))

	if filter != nil {
		query = filter.Apply(query)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// buildQuery 构建查询
func (r *BaseRepository[T]) buildQuery(ctx context.Context, opts ...QueryOption) *gorm.DB {
	cfg := &QueryConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return r.getDb(cfg).WithContext(ctx)
}

// getDb 获取数据库连接
func (r *BaseRepository[T]) getDb(cfg TxConfigurer) *gorm.DB {
	if cfg != nil {
		if tx := cfg.GetTx(); tx != nil {
			return tx
		}
	}
	return r.Db
}
