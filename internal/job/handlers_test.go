package job

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/repository/memory"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

func TestHandleSolveSkipsRetryOnMalformedPayload(t *testing.T) {
	h := NewHandlers(nil, nil, valueobject.AroundTheClockCalendar(), nil)

	task := asynq.NewTask(TypeSolve, []byte("not json"))
	err := h.HandleSolve(context.Background(), task)

	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestLoadMachinePoolMergesAvailableAndBusy(t *testing.T) {
	db := memory.New()

	available, err := entity.NewMachine("M1", "M1", entity.NewID(), entity.AutomationUnattended, 1.0)
	require.NoError(t, err)
	require.NoError(t, db.MachineRepository().Create(context.Background(), available))

	busy, err := entity.NewMachine("M2", "M2", entity.NewID(), entity.AutomationUnattended, 1.0)
	require.NoError(t, err)
	busy.SetStatus(entity.MachineBusy)
	require.NoError(t, db.MachineRepository().Create(context.Background(), busy))

	h := NewHandlers(db, nil, valueobject.AroundTheClockCalendar(), nil)
	pool, err := h.loadMachinePool(context.Background())
	require.NoError(t, err)

	assert.Len(t, pool, 2)
	assert.Contains(t, pool, available.ID())
	assert.Contains(t, pool, busy.ID())
}
