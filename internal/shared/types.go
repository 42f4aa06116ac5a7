package shared

// Asynq task types
const (
	TypeDeleteListingImages = "listing:delete_images"
)

// DeleteListingImagesPayload là payload của TypeDeleteListingImages
type DeleteListingImagesPayload struct {
	ListingID string   `json:"listingId"`
	OwnerID   string   `json:"ownerId"`
	Images    []string `json:"images"`
}

// Asynq queues
const (
	QueueListing = "listing"
	QueueDefault = "default"
)
