package postgres

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starwatch/pkg/domain/interfaces"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
)

type Client struct {
	db *sql.DB
}

var _ interfaces.StarRepository = (*Client)(nil)

// New opens a connection pool to the given database URL. The schema is not
// touched; run Migrate explicitly.
func New(dsn string) (*Client, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database")
	}

	if err := db.Ping(); err != nil {
		return nil, goerr.Wrap(err, "failed to connect to database")
	}

	return &Client{db: db}, nil
}

func (x *Client) Close() error {
	return x.db.Close()
}

// wrapDBError maps integrity constraint violations (SQLSTATE class 23) to
// ErrStorageConflict so the writer can abort only the affected chunk.
func wrapDBError(err error, msg string) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Class() == "23" {
		return goerr.Wrap(types.ErrStorageConflict, msg,
			goerr.V("code", string(pqErr.Code)),
			goerr.V("constraint", pqErr.Constraint),
			goerr.V("detail", pqErr.Detail),
		)
	}
	return goerr.Wrap(err, msg)
}
