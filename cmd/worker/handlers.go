package main

import (
	"context"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	listingJob "market-api/internal/domains/listing/job"
	"market-api/internal/shared"
	"market-api/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	deleteListingImages asynq.Handler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	if c.Storage == nil {
		// Không có object store: task bị bỏ, không retry
		log.Println("[Worker] ⚠️ Object storage not configured, image cleanup tasks will be skipped")
		return &HandlerRegistry{
			deleteListingImages: asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
				return fmt.Errorf("object storage not configured: %w", asynq.SkipRetry)
			}),
		}
	}

	return &HandlerRegistry{
		deleteListingImages: listingJob.NewDeleteImagesHandler(c.Storage, c.Config.S3.KeyPrefix),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.Handle(shared.TypeDeleteListingImages, h.deleteListingImages)
}
