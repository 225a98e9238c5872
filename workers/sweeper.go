package workers

import (
	"database/sql"
	"log"
	"time"

	"github.com/voiceline/voiceline-api/db"
)

// CallSweeper marks routing log entries that never received a terminal
// status callback as abandoned. Without it, lost callbacks would leave
// calls counted as in progress forever and slowly eat into every
// agent's concurrent call budget.
type CallSweeper struct {
	PG         *sql.DB
	Interval   time.Duration
	MaxCallAge time.Duration
}

func NewCallSweeper(pg *sql.DB) *CallSweeper {
	return &CallSweeper{
		PG:         pg,
		Interval:   time.Minute,
		MaxCallAge: 4 * time.Hour,
	}
}

// Start runs the sweep loop. It blocks; run it in its own goroutine.
func (w *CallSweeper) Start() {
	log.Printf("Call sweeper started, sweeping every %s (max call age %s)", w.Interval, w.MaxCallAge)

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for range ticker.C {
		w.SweepStaleCalls()
	}
}

// SweepStaleCalls abandons calls stuck in a non-terminal status longer
// than MaxCallAge
func (w *CallSweeper) SweepStaleCalls() {
	result, err := w.PG.Exec(`
		UPDATE call_routing_logs
		SET call_status = $1, updated_at = NOW()
		WHERE call_status IN ($2, $3) AND updated_at < NOW() - make_interval(mins => $4)
	`, db.CallStatusAbandoned, db.CallStatusRouting, db.CallStatusInProgress,
		int(w.MaxCallAge.Minutes()))

	if err != nil {
		log.Printf("Sweeper: failed to sweep stale calls: %v", err)
		return
	}

	if affected, err := result.RowsAffected(); err == nil && affected > 0 {
		log.Printf("Sweeper: marked %d stale calls as abandoned", affected)
	}
}
