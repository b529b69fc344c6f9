package store

import (
	"github.com/trackly/trackly-api/infra/db"
	"go.uber.org/fx"
)

var Module = fx.Module("store",
	fx.Provide(
		fx.Annotate(func(conn *db.DB) *Issues { return NewIssues(conn) }, fx.As(new(IssueStore))),
		fx.Annotate(func(conn *db.DB) *Users { return NewUsers(conn) }, fx.As(new(UserStore))),
		fx.Annotate(func(conn *db.DB) *Snapshots { return NewSnapshots(conn) }, fx.As(new(SnapshotStore))),
		fx.Annotate(func(conn *db.DB) *Files { return NewFiles(conn) }, fx.As(new(FileStore))),
	),
)
