package db

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"authgate/internal/model"
)

// OpenFunc establishes a connected GORM handle.
type OpenFunc func() (*gorm.DB, error)

// Provider hands out a single process-wide database connection, established
// lazily on first use. Concurrent callers arriving before the connection is
// ready share one in-flight connect; a failed attempt leaves the slot empty so
// the next caller retries. The handle is reused for the process lifetime and
// never torn down here.
type Provider struct {
	open  OpenFunc
	group singleflight.Group

	mu   sync.RWMutex
	conn *gorm.DB
}

// NewProvider builds a Provider for the given MySQL DSN. Schema migration for
// the user table runs once, on the first successful connect.
func NewProvider(dsn string) *Provider {
	return &Provider{open: func() (*gorm.DB, error) {
		conn, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		if err := conn.AutoMigrate(&model.User{}); err != nil {
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
		return conn, nil
	}}
}

// NewProviderWithOpen builds a Provider around a custom opener. Used in tests.
func NewProviderWithOpen(open OpenFunc) *Provider {
	return &Provider{open: open}
}

// Get returns the shared connection, establishing it if needed.
func (p *Provider) Get(ctx context.Context) (*gorm.DB, error) {
	p.mu.RLock()
	conn := p.conn
	p.mu.RUnlock()
	if conn != nil {
		return conn, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, err, _ := p.group.Do("connect", func() (interface{}, error) {
		p.mu.RLock()
		conn := p.conn
		p.mu.RUnlock()
		if conn != nil {
			return conn, nil
		}

		log.Println("db: establishing mysql connection")
		conn, err := p.open()
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.conn = conn
		p.mu.Unlock()
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*gorm.DB), nil
}
