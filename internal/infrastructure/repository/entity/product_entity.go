package entity

import (
	"github.com/shopspring/decimal"

	"commerce-core-square-layer/internal/domain"
)

// MongoProductDoc represents a platform product in MongoDB. Prices are
// stored as strings to keep decimal amounts exact.
type MongoProductDoc struct {
	ID          string        `bson:"_id"`
	TenantID    string        `bson:"tenantId"`
	Name        string        `bson:"name"`
	Description string        `bson:"description"`
	SKUs        []MongoSKUDoc `bson:"skus"`
}

// MongoSKUDoc is one sellable unit inside a product document.
type MongoSKUDoc struct {
	Code        string `bson:"code"`
	VariationID string `bson:"variationId"`
	Price       string `bson:"price"`
	Currency    string `bson:"currency"`
}

// ToDomain converts the MongoDB document to a domain entity. A price that
// fails to parse becomes zero; the platform store owns writes, so this only
// happens with hand-edited data.
func (d *MongoProductDoc) ToDomain() *domain.PlatformProduct {
	product := &domain.PlatformProduct{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
	}
	for _, sku := range d.SKUs {
		price, err := decimal.NewFromString(sku.Price)
		if err != nil {
			price = decimal.Zero
		}
		product.SKUs = append(product.SKUs, domain.PlatformSKU{
			Code:        sku.Code,
			VariationID: sku.VariationID,
			Price:       price,
			Currency:    sku.Currency,
		})
	}
	return product
}

// MongoProductDocFromDomain converts a domain entity to a MongoDB document.
func MongoProductDocFromDomain(tenantID string, p *domain.PlatformProduct) *MongoProductDoc {
	doc := &MongoProductDoc{
		ID:          p.ID,
		TenantID:    tenantID,
		Name:        p.Name,
		Description: p.Description,
	}
	for _, sku := range p.SKUs {
		doc.SKUs = append(doc.SKUs, MongoSKUDoc{
			Code:        sku.Code,
			VariationID: sku.VariationID,
			Price:       sku.Price.String(),
			Currency:    sku.Currency,
		})
	}
	return doc
}

// MongoInventoryDoc represents a platform inventory record in MongoDB.
type MongoInventoryDoc struct {
	ProductID string `bson:"productId"`
	TenantID  string `bson:"tenantId"`
	Quantity  int    `bson:"quantity"`
	State     string `bson:"state"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoInventoryDoc) ToDomain() *domain.PlatformInventory {
	return &domain.PlatformInventory{
		ProductID:      d.ProductID,
		Quantity:       d.Quantity,
		State:          domain.InventoryState(d.State),
		QuantityParsed: true,
	}
}

// MongoInventoryDocFromDomain converts a domain entity to a MongoDB document.
func MongoInventoryDocFromDomain(tenantID string, inv *domain.PlatformInventory) *MongoInventoryDoc {
	return &MongoInventoryDoc{
		ProductID: inv.ProductID,
		TenantID:  tenantID,
		Quantity:  inv.Quantity,
		State:     string(inv.State),
	}
}
