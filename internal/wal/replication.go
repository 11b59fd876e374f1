package wal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pglogrepl"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgproto3"
	"go.uber.org/zap"

	"github.com/zoravur/tabletop-sync/internal/logutil"
)

const (
	outputPlugin          = "wal2json"
	standbyMessageTimeout = 10 * time.Second
)

// Replicator streams logical replication from Postgres into a Consumer.
type Replicator struct {
	// ConnString must include replication=database.
	ConnString string
	Slot       string
	Retry      time.Duration
	Consumer   *Consumer
	Log        *zap.Logger
}

// Run keeps a replication stream open until ctx is cancelled, reconnecting
// after failures.
func (r *Replicator) Run(ctx context.Context) error {
	retry := r.Retry
	if retry <= 0 {
		retry = 5 * time.Second
	}
	for {
		err := r.stream(ctx)
		if ctx.Err() != nil {
			return nil
		}
		r.Log.Warn("replication stream failed, reconnecting", zap.Error(err), zap.Duration("retry", retry))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retry):
		}
	}
}

func (r *Replicator) stream(ctx context.Context) error {
	conn, err := pgconn.Connect(ctx, r.ConnString)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	sys, err := pglogrepl.IdentifySystem(ctx, conn)
	if err != nil {
		return err
	}
	r.Log.Info("replication connected", logutil.Values(
		zap.String("system", sys.SystemID),
		zap.Int32("timeline", sys.Timeline),
		zap.String("xlogpos", sys.XLogPos.String()),
		zap.String("db", sys.DBName),
	))

	if err := r.ensureSlot(ctx, conn); err != nil {
		return err
	}

	pluginArguments := []string{
		`"add-tables" '*.game_rooms,*.characters,*.items'`,
	}
	err = pglogrepl.StartReplication(ctx, conn, r.Slot, sys.XLogPos,
		pglogrepl.StartReplicationOptions{PluginArgs: pluginArguments})
	if err != nil {
		return err
	}
	r.Log.Info("logical replication started", zap.String("slot", r.Slot))

	var lastLSN pglogrepl.LSN
	nextStandbyMessageDeadline := time.Now().Add(standbyMessageTimeout)

	for {
		if time.Now().After(nextStandbyMessageDeadline) && lastLSN != 0 {
			err = pglogrepl.SendStandbyStatusUpdate(ctx, conn, pglogrepl.StandbyStatusUpdate{WALWritePosition: lastLSN})
			if err != nil {
				return fmt.Errorf("standby status update: %w", err)
			}
			nextStandbyMessageDeadline = time.Now().Add(standbyMessageTimeout)
		}

		recvCtx, cancel := context.WithDeadline(ctx, nextStandbyMessageDeadline)
		rawMsg, err := conn.ReceiveMessage(recvCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
				continue
			}
			return err
		}

		if errMsg, ok := rawMsg.(*pgproto3.ErrorResponse); ok {
			return fmt.Errorf("replication error: %s", errMsg.Message)
		}

		msg, ok := rawMsg.(*pgproto3.CopyData)
		if !ok {
			r.Log.Debug("unexpected replication message", zap.String("type", fmt.Sprintf("%T", rawMsg)))
			continue
		}

		if r.handleCopyData(ctx, msg.Data, &lastLSN) {
			nextStandbyMessageDeadline = time.Time{}
		}
	}
}

// handleCopyData processes one replication frame, advancing lastLSN past
// any WAL it delivers. It reports whether the server asked for an
// immediate status reply.
func (r *Replicator) handleCopyData(ctx context.Context, data []byte, lastLSN *pglogrepl.LSN) bool {
	if len(data) == 0 {
		return false
	}

	switch data[0] {
	case pglogrepl.PrimaryKeepaliveMessageByteID:
		pkm, err := pglogrepl.ParsePrimaryKeepaliveMessage(data[1:])
		if err != nil {
			r.Log.Warn("parse keepalive", zap.Error(err))
			return false
		}
		return pkm.ReplyRequested

	case pglogrepl.XLogDataByteID:
		xld, err := pglogrepl.ParseXLogData(data[1:])
		if err != nil {
			r.Log.Warn("parse xlog data", zap.Error(err))
			return false
		}
		if err := r.Consumer.OnMessage(ctx, xld.WALData); err != nil {
			r.Log.Warn("wal message dropped", zap.Error(err))
		}
		*lastLSN = xld.WALStart + pglogrepl.LSN(len(xld.WALData))
	}
	return false
}

func (r *Replicator) ensureSlot(ctx context.Context, conn *pgconn.PgConn) error {
	_, err := pglogrepl.CreateReplicationSlot(ctx, conn, r.Slot, outputPlugin, pglogrepl.CreateReplicationSlotOptions{})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42710" { // duplicate_object
		return nil
	}
	if err != nil {
		return fmt.Errorf("create slot %s: %w", r.Slot, err)
	}
	r.Log.Info("replication slot created", zap.String("slot", r.Slot))
	return nil
}
