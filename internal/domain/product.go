package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// Product is the catalog view this service needs: a price to snapshot into
// carts and the stock counters checkout adjusts.
type Product struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title    string             `bson:"title" json:"title"`
	Price    float64            `bson:"price" json:"price"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Sold     int                `bson:"sold" json:"sold"`
}
