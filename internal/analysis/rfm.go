package analysis

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/orderlens-cli/internal/dataset"
)

// TimestampLayout is the layout of order_purchase_timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// RFM is the recency, frequency and monetary profile of one customer.
type RFM struct {
	CustomerID   string    `json:"customer_id"`
	City         string    `json:"customer_city"`
	LastPurchase time.Time `json:"last_purchase"`
	Recency      int       `json:"recency_days"`
	Frequency    int       `json:"frequency"`
	Monetary     float64   `json:"monetary"`
}

// CustomerRFM profiles every customer. Recency counts whole days between the
// customer's last purchase and the latest purchase in t. Frequency is the number
// of distinct orders and monetary the sum of item prices. Results are sorted by
// monetary value descending, then customer id. Rows with an unparsable
// timestamp still count toward frequency and monetary.
func CustomerRFM(t *dataset.Table) ([]RFM, error) {
	prices, err := t.Floats(dataset.Price)
	if err != nil {
		return nil, err
	}
	customers := t.Strings(dataset.CustomerID)
	cities := t.Strings(dataset.CustomerCity)
	orders := t.Strings(dataset.OrderID)
	stamps := t.Strings(dataset.PurchaseTimestamp)

	type acc struct {
		rfm    RFM
		orders map[string]struct{}
	}
	byCustomer := make(map[string]*acc)
	var latest time.Time
	for i, id := range customers {
		if id == "" {
			continue
		}
		a, ok := byCustomer[id]
		if !ok {
			a = &acc{rfm: RFM{CustomerID: id, City: cities[i]}, orders: make(map[string]struct{})}
			byCustomer[id] = a
		}
		if orders[i] != "" {
			a.orders[orders[i]] = struct{}{}
		}
		if !math.IsNaN(prices[i]) {
			a.rfm.Monetary += prices[i]
		}
		ts, err := time.Parse(TimestampLayout, strings.TrimSpace(stamps[i]))
		if err != nil {
			continue
		}
		if ts.After(a.rfm.LastPurchase) {
			a.rfm.LastPurchase = ts
		}
		if ts.After(latest) {
			latest = ts
		}
	}

	out := make([]RFM, 0, len(byCustomer))
	for _, a := range byCustomer {
		r := a.rfm
		r.Frequency = len(a.orders)
		if r.LastPurchase.IsZero() {
			r.Recency = -1
		} else {
			r.Recency = int(latest.Sub(r.LastPurchase).Hours() / 24)
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Monetary != out[j].Monetary {
			return out[i].Monetary > out[j].Monetary
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	return out, nil
}

// TopRFM returns at most n leading profiles; n <= 0 returns all of them.
func TopRFM(rows []RFM, n int) []RFM {
	return topOf(rows, n)
}
