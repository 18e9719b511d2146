package events

// Topic constants for domain events emitted by the engine.
const (
	TopicProductPublished    = "product.published"
	TopicProductArchived     = "product.archived"
	TopicProductUnarchived   = "product.unarchived"
	TopicProductDrafted      = "product.drafted"
	TopicInventoryLowStock   = "inventory.low_stock"
	TopicInventoryOutOfStock = "inventory.out_of_stock"
	TopicDiscountCreated     = "discount.created"
	TopicDiscountUpdated     = "discount.updated"
	TopicDiscountDeleted     = "discount.deleted"
	TopicDiscountsCleaned    = "discount.cleaned"
)

// DefaultTopics returns every topic the engine emits.
func DefaultTopics() []string {
	return []string{
		TopicProductPublished,
		TopicProductArchived,
		TopicProductUnarchived,
		TopicProductDrafted,
		TopicInventoryLowStock,
		TopicInventoryOutOfStock,
		TopicDiscountCreated,
		TopicDiscountUpdated,
		TopicDiscountDeleted,
		TopicDiscountsCleaned,
	}
}
