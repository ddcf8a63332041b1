package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/portfoliopro/portfoliopro/internal/asset"
	"github.com/portfoliopro/portfoliopro/internal/auth"
	"github.com/portfoliopro/portfoliopro/internal/contact"
	"github.com/portfoliopro/portfoliopro/internal/dashboard"
	"github.com/portfoliopro/portfoliopro/internal/database"
	"github.com/portfoliopro/portfoliopro/internal/project"
	"github.com/portfoliopro/portfoliopro/internal/site"
	"github.com/portfoliopro/portfoliopro/internal/user"
)

// healthPingTimeout はヘルスチェック時のDB疎通確認のタイムアウト。
const healthPingTimeout = 2 * time.Second

// DBHealthChecker は *sql.DB を HealthChecker に適合させるアダプタ。
type DBHealthChecker struct {
	db *sql.DB
}

// NewDBHealthChecker はDBHealthCheckerを生成する。
func NewDBHealthChecker(db *sql.DB) *DBHealthChecker {
	return &DBHealthChecker{db: db}
}

// Ping はDBへの疎通を確認する。
func (c *DBHealthChecker) Ping(ctx context.Context) error {
	return database.Ping(ctx, c.db, healthPingTimeout)
}

// --- compile-time interface checks ---

var _ AuthServiceInterface = (*auth.Service)(nil)
var _ UserServiceInterface = (*user.Service)(nil)
var _ SiteServiceInterface = (*site.Service)(nil)
var _ ProjectServiceInterface = (*project.Service)(nil)
var _ AssetServiceInterface = (*asset.Service)(nil)
var _ ContactServiceInterface = (*contact.Service)(nil)
var _ DashboardServiceInterface = (*dashboard.Service)(nil)
var _ HealthChecker = (*DBHealthChecker)(nil)
