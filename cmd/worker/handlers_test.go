package main

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-api/internal/config"
	"market-api/internal/shared"
	"market-api/pkg/container"
)

func TestHandlersSkipWithoutStorage(t *testing.T) {
	c := &container.Container{Config: &config.Config{}}
	reg := initializeHandlers(c)

	mux := asynq.NewServeMux()
	reg.RegisterHandlers(mux)

	task := asynq.NewTask(shared.TypeDeleteListingImages, []byte(`{"listingId":"l1","images":["uploads/a.png"]}`))
	err := mux.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
