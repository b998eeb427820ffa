// internal/app/system/txn/txn.go
//
// Package txn runs a group of writes inside a MongoDB multi-document
// transaction when the deployment supports one, and falls back to running them
// directly on standalone servers.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type activeKey struct{}

// Active reports whether ctx belongs to a running transaction started by Run.
func Active(ctx context.Context) bool {
	v, _ := ctx.Value(activeKey{}).(bool)
	return v
}

// Run executes fn in a transaction. When the server cannot run transactions
// (standalone mongod, unsupported session), fn is run once without one and the
// fallback is logged. fn may be retried by the driver on transient errors, so
// it must be safe to repeat.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	if log == nil {
		log = zap.NewNop()
	}

	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			log.Warn("transactions unavailable, running without", zap.Error(err))
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	attempted := false
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		attempted = true
		return nil, fn(context.WithValue(sc, activeKey{}, true))
	})
	if err == nil {
		return nil
	}
	if IsNotSupported(err) {
		log.Warn("transaction not supported, retrying without",
			zap.Bool("body_ran", attempted), zap.Error(err))
		return fn(ctx)
	}
	return err
}

// notSupportedCodes are server error codes meaning the deployment cannot run
// the transaction at all: IllegalOperation (20) and
// OperationNotSupportedInTransaction (263).
var notSupportedCodes = map[int32]bool{
	20:  true,
	263: true,
}

var notSupportedKeywords = []string{
	"transaction",
	"replica set",
	"session",
	"not supported",
	"illegal operation",
}

// IsNotSupported reports whether err means transactions are unavailable on
// this deployment rather than that the transaction itself failed.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return notSupportedCodes[ce.Code]
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "illegal operation") {
		return true
	}
	hits := 0
	for _, kw := range notSupportedKeywords {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}
