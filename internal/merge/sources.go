package merge

import (
	"path/filepath"

	"github.com/KaramelBytes/orderlens-cli/internal/dataset"
)

// Source describes one normalized input table: where it lives, the column it
// is keyed by and the columns carried into the merged table.
type Source struct {
	Name string
	File string
	Key  dataset.Column
	Keep []dataset.Column
}

var (
	Customers = Source{
		Name: "customers",
		File: "customers_dataset.csv",
		Key:  dataset.CustomerID,
		Keep: []dataset.Column{dataset.CustomerID, dataset.CustomerCity},
	}
	Orders = Source{
		Name: "orders",
		File: "orders_dataset.csv",
		Key:  dataset.OrderID,
		Keep: []dataset.Column{dataset.OrderID, dataset.CustomerID, dataset.PurchaseTimestamp},
	}
	OrderItems = Source{
		Name: "order_items",
		File: "order_items_dataset.csv",
		Key:  dataset.OrderID,
		Keep: []dataset.Column{dataset.OrderID, dataset.ProductID, dataset.Price, dataset.FreightValue},
	}
	OrderReviews = Source{
		Name: "order_reviews",
		File: "order_reviews_dataset.csv",
		Key:  dataset.OrderID,
		Keep: []dataset.Column{dataset.OrderID, dataset.ReviewScore},
	}
	Products = Source{
		Name: "products",
		File: "products_dataset.csv",
		Key:  dataset.ProductID,
		Keep: []dataset.Column{dataset.ProductID, dataset.ProductCategory, dataset.ProductWeight},
	}
)

// Sources lists the inputs in join order.
var Sources = []Source{Customers, Orders, OrderItems, OrderReviews, Products}

// DefaultOutputName is the file name of the merged table.
const DefaultOutputName = "ecommerce_dataset.csv"

// Path returns the location of s inside dir.
func (s Source) Path(dir string) string { return filepath.Join(dir, s.File) }

func (s Source) keepNames() []string {
	out := make([]string, len(s.Keep))
	for i, c := range s.Keep {
		out[i] = string(c)
	}
	return out
}
